package headless

// stabilityTracker decides when the polled score value has converged:
// required consecutive identical non-empty observations. An empty
// observation resets the streak, so a value flickering in and out never
// counts as stable.
type stabilityTracker struct {
	required int
	last     string
	streak   int
}

func newStabilityTracker(required int) *stabilityTracker {
	if required < 1 {
		required = 1
	}
	return &stabilityTracker{required: required}
}

func (t *stabilityTracker) Observe(value string) bool {
	if value == "" {
		t.last = ""
		t.streak = 0
		return false
	}
	if value == t.last {
		t.streak++
	} else {
		t.last = value
		t.streak = 1
	}
	return t.streak >= t.required
}

// heightTracker decides when lazy loading has exhausted: required
// consecutive unchanged scroll-height readings. Unlike the score poll,
// every reading counts; a short page is legitimately short.
type heightTracker struct {
	required int
	last     int
	streak   int
	seen     bool
}

func newHeightTracker(required int) *heightTracker {
	if required < 1 {
		required = 1
	}
	return &heightTracker{required: required}
}

func (t *heightTracker) Observe(height int) bool {
	if t.seen && height == t.last {
		t.streak++
	} else {
		t.last = height
		t.streak = 1
		t.seen = true
	}
	return t.streak >= t.required
}

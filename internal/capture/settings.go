package capture

import "time"

// Settings carries every heuristic knob of the pipeline. Unset fields
// are filled from DefaultSettings by the engine, so a partially
// populated struct is safe to pass.
type Settings struct {
	// UserAgent overrides the browser's user agent for all requests.
	UserAgent string
	// ViewportWidth and ViewportHeight size the browser window. The
	// final screenshot may be taller: capture extends beyond the
	// viewport to the full page.
	ViewportWidth  int
	ViewportHeight int
	// NavTimeout bounds navigation only. Expiry is tolerated: the
	// pipeline continues with whatever the page managed to render.
	NavTimeout time.Duration
	// Settle is the fixed delay after navigation and again before the
	// screenshot, giving late renders a chance to paint.
	Settle time.Duration
	// Quality selects the screenshot encoding; 100 produces PNG, lower
	// values JPEG at that quality.
	Quality int
	// ConsentLabels are button texts dismissed best-effort after
	// navigation, matched case-insensitively as substrings.
	ConsentLabels []string
	Score         ScoreSettings
	Scroll        ScrollSettings
}

// ScoreSettings tunes the value-stability poll.
type ScoreSettings struct {
	// Rounds caps how often the probe runs before the poll gives up
	// and the pipeline proceeds anyway.
	Rounds int
	// Interval separates poll rounds.
	Interval time.Duration
	// StableReads is how many consecutive identical non-empty
	// observations count as converged.
	StableReads int
}

// ScrollSettings tunes lazy-load exhaustion.
type ScrollSettings struct {
	// MaxIterations caps scroll-to-bottom passes.
	MaxIterations int
	// Interval is the wait between scrolling and re-measuring, long
	// enough for lazy content to extend the page.
	Interval time.Duration
	// StableReads is how many consecutive unchanged height readings
	// count as exhausted.
	StableReads int
	// MinScrollPx is the smallest scrollHeight-clientHeight excess an
	// element needs to be considered the dominant scrollable region.
	MinScrollPx int
}

// DefaultSettings returns the documented defaults. They mirror the
// production deployment: a 1280x720 desktop Linux Chrome hitting a page
// that needs roughly two seconds to settle.
func DefaultSettings() Settings {
	return Settings{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome Safari/537.36",
		ViewportWidth:  1280,
		ViewportHeight: 720,
		NavTimeout:     45 * time.Second,
		Settle:         2 * time.Second,
		Quality:        100,
		ConsentLabels:  []string{"Accept all", "Accept", "I Agree", "Got it", "OK"},
		Score: ScoreSettings{
			Rounds:      10,
			Interval:    500 * time.Millisecond,
			StableReads: 2,
		},
		Scroll: ScrollSettings{
			MaxIterations: 12,
			Interval:      600 * time.Millisecond,
			StableReads:   2,
			MinScrollPx:   200,
		},
	}
}

// WithDefaults fills unset fields from DefaultSettings. Settle and
// MinScrollPx treat zero as a valid value; only negatives reset.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.UserAgent == "" {
		s.UserAgent = def.UserAgent
	}
	if s.ViewportWidth <= 0 {
		s.ViewportWidth = def.ViewportWidth
	}
	if s.ViewportHeight <= 0 {
		s.ViewportHeight = def.ViewportHeight
	}
	if s.NavTimeout <= 0 {
		s.NavTimeout = def.NavTimeout
	}
	if s.Settle < 0 {
		s.Settle = def.Settle
	}
	if s.Quality <= 0 {
		s.Quality = def.Quality
	}
	if s.ConsentLabels == nil {
		s.ConsentLabels = def.ConsentLabels
	}
	if s.Score.Rounds <= 0 {
		s.Score.Rounds = def.Score.Rounds
	}
	if s.Score.Interval <= 0 {
		s.Score.Interval = def.Score.Interval
	}
	if s.Score.StableReads <= 0 {
		s.Score.StableReads = def.Score.StableReads
	}
	if s.Scroll.MaxIterations <= 0 {
		s.Scroll.MaxIterations = def.Scroll.MaxIterations
	}
	if s.Scroll.Interval <= 0 {
		s.Scroll.Interval = def.Scroll.Interval
	}
	if s.Scroll.StableReads <= 0 {
		s.Scroll.StableReads = def.Scroll.StableReads
	}
	if s.Scroll.MinScrollPx < 0 {
		s.Scroll.MinScrollPx = def.Scroll.MinScrollPx
	}
	return s
}

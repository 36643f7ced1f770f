package capture

import (
	"encoding/json"
	"fmt"
)

// ReadyProbe supplies the page-side observation for the value-stability
// poll. Script returns a JavaScript expression that yields a string,
// empty while the content of interest is absent. The convergence rule
// (consecutive identical reads) lives in the engine, so swapping the
// probe never touches the poll's control flow.
type ReadyProbe interface {
	Script() string
}

// ScoreProbe observes the numeric score figure on a vehicle score page.
// It tries a selector list first and falls back to scanning text nodes
// for a short, purely numeric value.
type ScoreProbe struct {
	// Selectors are tried in order; the first non-empty textContent wins.
	Selectors []string
	// MaxLen bounds the fallback scan: only text nodes this short or
	// shorter qualify as a score reading.
	MaxLen int
}

// NewScoreProbe returns the default probe for vehiclescore.co.uk.
func NewScoreProbe() ScoreProbe {
	return ScoreProbe{
		Selectors: []string{
			`[data-testid="score"]`,
			`[data-score]`,
			`.score-value`,
			`.score`,
			`#score`,
		},
		MaxLen: 4,
	}
}

// Script builds the observation expression. Selectors are embedded as a
// JSON array so quoting inside them can not break the script.
func (p ScoreProbe) Script() string {
	selectors, err := json.Marshal(p.Selectors)
	if err != nil {
		// A []string always marshals; keep the fallback scan regardless.
		selectors = []byte("[]")
	}
	maxLen := p.MaxLen
	if maxLen <= 0 {
		maxLen = 4
	}
	return fmt.Sprintf(`(() => {
	if (!document.body) return '';
	const selectors = %s;
	for (const sel of selectors) {
		let el = null;
		try { el = document.querySelector(sel); } catch (e) { continue; }
		if (!el) continue;
		const text = (el.textContent || '').trim();
		if (text) return text;
	}
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
	while (walker.nextNode()) {
		const text = walker.currentNode.textContent.trim();
		if (text && text.length <= %d && /^[0-9]+$/.test(text)) return text;
	}
	return '';
})()`, selectors, maxLen)
}

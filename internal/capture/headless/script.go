package headless

import (
	"encoding/json"
	"fmt"
)

// The elected scroll region is pinned on window so every later script
// addresses the same element without re-running the election.
const regionExpr = `(window.__scoreshotScrollRegion || document.scrollingElement || document.documentElement)`

// findScrollRegionScript elects the dominant scrollable region: among
// elements whose computed overflow-y is auto or scroll, the one with the
// largest scrollHeight-clientHeight excess at or above minPx. When none
// qualifies the document's scrolling element scrolls instead.
func findScrollRegionScript(minPx int) string {
	return fmt.Sprintf(`(() => {
	const min = %d;
	const doc = document.scrollingElement || document.documentElement;
	let best = null;
	let bestExtent = 0;
	for (const el of document.querySelectorAll('*')) {
		const style = window.getComputedStyle(el);
		if (style.overflowY !== 'auto' && style.overflowY !== 'scroll') continue;
		const extent = el.scrollHeight - el.clientHeight;
		if (extent >= min && extent > bestExtent) {
			best = el;
			bestExtent = extent;
		}
	}
	window.__scoreshotScrollRegion = best || doc;
	return best ? 'element' : 'document';
})()`, minPx)
}

const scrollToBottomScript = `(() => {
	const el = ` + regionExpr + `;
	el.scrollTop = el.scrollHeight;
	return el.scrollTop;
})()`

const readHeightScript = `(() => {
	const el = ` + regionExpr + `;
	return el.scrollHeight;
})()`

const scrollToTopScript = `(() => {
	const el = ` + regionExpr + `;
	el.scrollTop = 0;
	window.scrollTo(0, 0);
	return el.scrollTop;
})()`

// consentClickScript clicks the first button whose visible text contains
// one of the labels, case-insensitively. Returns the clicked text, empty
// when nothing matched.
func consentClickScript(labels []string) string {
	encoded, err := json.Marshal(labels)
	if err != nil {
		encoded = []byte("[]")
	}
	return fmt.Sprintf(`(() => {
	const labels = %s.map((l) => l.toLowerCase());
	const candidates = document.querySelectorAll('button, [role="button"], input[type="button"], input[type="submit"]');
	for (const el of candidates) {
		const text = ((el.innerText || el.value || '') + '').trim().toLowerCase();
		if (!text) continue;
		for (const label of labels) {
			if (text.includes(label)) {
				el.click();
				return text;
			}
		}
	}
	return '';
})()`, encoded)
}

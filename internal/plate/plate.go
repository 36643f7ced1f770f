// Package plate normalizes and validates vehicle registration marks and
// builds the score-page links the bot screenshots.
package plate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Normalize trims surrounding whitespace and uppercases a raw plate.
// Interior whitespace survives on purpose, so "AB12 CDE" stays invalid;
// users are expected to send the mark without spaces.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Rules validates normalized registration marks against an anchored
// uppercase-alphanumeric pattern with configured length bounds.
type Rules struct {
	re       *regexp.Regexp
	min, max int
}

// NewRules compiles the validator for marks of minLen..maxLen characters.
func NewRules(minLen, maxLen int) (Rules, error) {
	if minLen < 1 || minLen > maxLen {
		return Rules{}, fmt.Errorf("plate length bounds must satisfy 1 <= min <= max, got %d..%d", minLen, maxLen)
	}
	re, err := regexp.Compile(fmt.Sprintf(`^[A-Z0-9]{%d,%d}$`, minLen, maxLen))
	if err != nil {
		return Rules{}, fmt.Errorf("compile plate pattern: %w", err)
	}
	return Rules{re: re, min: minLen, max: maxLen}, nil
}

// Valid reports whether a normalized mark matches the pattern. Callers
// must Normalize first; lowercase or padded input fails here.
func (r Rules) Valid(vrm string) bool {
	return r.re.MatchString(vrm)
}

// Bounds returns the configured length range, for user-facing hints.
func (r Rules) Bounds() (minLen, maxLen int) {
	return r.min, r.max
}

// LinkBuilder renders score-page URLs for validated marks.
type LinkBuilder struct {
	base *url.URL
}

// NewLinkBuilder parses the score page base URL once. The base must be
// absolute http(s); anything else is a configuration mistake.
func NewLinkBuilder(base string) (LinkBuilder, error) {
	u, err := url.Parse(base)
	if err != nil {
		return LinkBuilder{}, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return LinkBuilder{}, fmt.Errorf("base url must be absolute http(s), got %q", base)
	}
	return LinkBuilder{base: u}, nil
}

// ScoreURL returns base + "?registration=<mark>" with the mark passed
// through query encoding, never string concatenation.
func (b LinkBuilder) ScoreURL(vrm string) string {
	u := *b.base
	q := u.Query()
	q.Set("registration", vrm)
	u.RawQuery = q.Encode()
	return u.String()
}

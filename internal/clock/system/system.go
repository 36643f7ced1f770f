// Package system provides a real clock implementation.
package system

import "time"

// Clock implements artifact.Clock using time.Now. Timestamps are UTC so
// artifact names sort the same wherever the bot runs.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

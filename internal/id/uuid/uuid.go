// Package uuid provides ID generation helpers.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator creates job IDs and short artifact suffixes.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string. V7 IDs sort by creation time, which
// keeps per-job log correlation cheap.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// ShortID returns eight hex characters of a UUIDv4 for artifact
// filename suffixes. A v7 prefix would not do here: it encodes the
// mint time, so IDs from the same millisecond share it.
func (Generator) ShortID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid4: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", "")[:8], nil
}

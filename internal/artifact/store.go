// Package artifact manages the temporary screenshot files handed to
// Telegram: unique names on the way in, guarded deletion on the way out.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Clock supplies timestamps for artifact names.
type Clock interface {
	Now() time.Time
}

// IDSource supplies the random suffix that keeps two concurrent jobs for
// the same plate from colliding within one second.
type IDSource interface {
	ShortID() (string, error)
}

// Store hands out paths under a single scratch directory and removes
// them after the photo has been sent.
type Store struct {
	dir   string
	clock Clock
	ids   IDSource
}

// timestampLayout keeps names sortable and grep-friendly: the plate,
// then the UTC second, then the collision suffix.
const timestampLayout = "20060102_150405"

// New validates the directory up front: a bad artifacts.dir fails at
// startup, not at the first capture.
func New(dir string, clock Clock, ids IDSource) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("create artifact directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("stat artifact directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("artifact path %q is not a directory", dir)
	}

	// Probe write permissions now rather than mid-job.
	testFile := filepath.Join(dir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("artifact directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up writability probe: %w", err)
	}

	return &Store{dir: filepath.Clean(dir), clock: clock, ids: ids}, nil
}

// NewPath returns <dir>/<VRM>_<UTC timestamp>_<suffix>.png for a job.
// The path is reserved by name only; the engine creates the file.
func (s *Store) NewPath(vrm string) (string, error) {
	if vrm == "" {
		return "", fmt.Errorf("vrm is required")
	}
	suffix, err := s.ids.ShortID()
	if err != nil {
		return "", fmt.Errorf("artifact suffix: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.png", vrm, s.clock.Now().UTC().Format(timestampLayout), suffix)
	return filepath.Join(s.dir, name), nil
}

// Remove deletes a previously issued artifact. Paths that resolve
// outside the store directory are refused.
func (s *Store) Remove(path string) error {
	clean := filepath.Clean(path)
	if !strings.HasPrefix(clean, s.dir+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the artifact directory", path)
	}
	if err := os.Remove(clean); err != nil {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// Dir reports the scratch directory for startup logging.
func (s *Store) Dir() string {
	return s.dir
}

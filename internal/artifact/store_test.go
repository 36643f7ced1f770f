// Package artifact_test tests the screenshot scratch-file store.
package artifact_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewatch/scoreshot/internal/artifact"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fixedIDs struct{ id string }

func (f fixedIDs) ShortID() (string, error) { return f.id, nil }

func newStore(t *testing.T) (*artifact.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := artifact.New(dir,
		fixedClock{at: time.Date(2024, 11, 5, 14, 30, 9, 0, time.UTC)},
		fixedIDs{id: "deadbeef"})
	require.NoError(t, err)
	return store, dir
}

func TestNew(t *testing.T) {
	t.Run("CreatesMissingDirectory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "artifacts")
		store, err := artifact.New(dir, fixedClock{at: time.Now()}, fixedIDs{id: "00000000"})
		require.NoError(t, err)

		info, err := os.Stat(store.Dir())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingDir", func(t *testing.T) {
		_, err := artifact.New("   ", fixedClock{at: time.Now()}, fixedIDs{id: "00000000"})
		assert.Error(t, err)
	})

	t.Run("PathIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "occupied")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := artifact.New(file, fixedClock{at: time.Now()}, fixedIDs{id: "00000000"})
		assert.Error(t, err)
	})

	t.Run("DirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permission bits do not bind root")
		}
		dir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(dir, 0o500))

		_, err := artifact.New(dir, fixedClock{at: time.Now()}, fixedIDs{id: "00000000"})
		assert.Error(t, err)

		// Change back to writable so cleanup can happen
		// #nosec G302 -- reverting permissions to allow cleanup in the test environment.
		require.NoError(t, os.Chmod(dir, 0o700))
	})
}

func TestNewPath(t *testing.T) {
	store, dir := newStore(t)

	t.Run("Shape", func(t *testing.T) {
		path, err := store.NewPath("VN64NWG")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "VN64NWG_20241105_143009_deadbeef.png"), path)
	})

	t.Run("EmptyVRM", func(t *testing.T) {
		_, err := store.NewPath("")
		assert.Error(t, err)
	})
}

func TestRemove(t *testing.T) {
	store, dir := newStore(t)

	t.Run("DeletesIssuedArtifact", func(t *testing.T) {
		path, err := store.NewPath("VN64NWG")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

		require.NoError(t, store.Remove(path))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("RefusesOutsidePath", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "elsewhere.png")
		require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

		assert.Error(t, store.Remove(outside))
	})

	t.Run("RefusesTraversal", func(t *testing.T) {
		err := store.Remove(filepath.Join(dir, "..", "escape.png"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside")
	})

	t.Run("MissingFileReportsNotExist", func(t *testing.T) {
		path, err := store.NewPath("VN64NWG")
		require.NoError(t, err)

		err = store.Remove(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

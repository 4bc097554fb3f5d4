package thumb

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return m
}

func TestStore(t *testing.T) {
	m := newTestManager(t)

	path, err := m.Store(strings.NewReader("image-bytes"))
	require.NoError(t, err)

	name := filepath.Base(path)
	assert.Len(t, name, nameLength)
	for _, c := range name {
		assert.Contains(t, nameAlphabet, string(c))
	}

	data, err := os.ReadFile(filepath.FromSlash(path))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestStoreNamesAreUnique(t *testing.T) {
	m := newTestManager(t)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		path, err := m.Store(strings.NewReader("x"))
		require.NoError(t, err)
		assert.False(t, seen[path], "duplicate path %s", path)
		seen[path] = true
	}
}

func TestReplaceIfChangedIdentical(t *testing.T) {
	m := newTestManager(t)

	oldPath, err := m.Store(strings.NewReader("same content"))
	require.NoError(t, err)
	newPath, err := m.Store(strings.NewReader("same content"))
	require.NoError(t, err)

	got, err := m.ReplaceIfChanged(oldPath, newPath)
	require.NoError(t, err)
	assert.Equal(t, oldPath, got)

	// Original survives, duplicate upload is discarded.
	_, err = os.Stat(oldPath)
	assert.NoError(t, err)
	_, err = os.Stat(newPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReplaceIfChangedDifferent(t *testing.T) {
	m := newTestManager(t)

	oldPath, err := m.Store(strings.NewReader("old content"))
	require.NoError(t, err)
	newPath, err := m.Store(strings.NewReader("new content"))
	require.NoError(t, err)

	got, err := m.ReplaceIfChanged(oldPath, newPath)
	require.NoError(t, err)
	assert.Equal(t, newPath, got)

	_, err = os.Stat(oldPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(newPath)
	assert.NoError(t, err)
}

func TestReplaceIfChangedSameSizeDifferentContent(t *testing.T) {
	m := newTestManager(t)

	oldPath, err := m.Store(strings.NewReader("aaaa"))
	require.NoError(t, err)
	newPath, err := m.Store(strings.NewReader("bbbb"))
	require.NoError(t, err)

	// Equal sizes must not short-circuit the content comparison.
	got, err := m.ReplaceIfChanged(oldPath, newPath)
	require.NoError(t, err)
	assert.Equal(t, newPath, got)
}

func TestReplaceIfChangedMissingOriginal(t *testing.T) {
	m := newTestManager(t)

	newPath, err := m.Store(strings.NewReader("new content"))
	require.NoError(t, err)

	_, err = m.ReplaceIfChanged(filepath.Join(m.Dir(), "GONE______________"), newPath)
	assert.ErrorIs(t, err, ErrMissingOriginal)

	// The upload is untouched; the caller decides how to clean up.
	_, err = os.Stat(newPath)
	assert.NoError(t, err)
}

func TestRemove(t *testing.T) {
	m := newTestManager(t)

	path, err := m.Store(strings.NewReader("bytes"))
	require.NoError(t, err)

	require.NoError(t, m.Remove(path))
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Error(t, m.Remove(path))
}

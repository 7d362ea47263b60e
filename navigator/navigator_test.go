package navigator_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/br4qua/qua-play/navigator"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	return path
}

func TestNext_WrapsForward(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.flac")
	touch(t, dir, "b.flac")
	third := touch(t, dir, "c.flac")

	got, err := navigator.Next(filepath.Join(dir, "b.flac"), 1)
	require.NoError(t, err)
	assert.Equal(t, third, got)
}

func TestNext_WrapsPastEnd(t *testing.T) {
	dir := t.TempDir()
	first := touch(t, dir, "a.flac")
	touch(t, dir, "b.flac")
	touch(t, dir, "c.flac")

	got, err := navigator.Next(filepath.Join(dir, "c.flac"), 1)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestNext_NegativeOffsetWrapsBackward(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.flac")
	touch(t, dir, "b.flac")
	third := touch(t, dir, "c.flac")

	got, err := navigator.Next(filepath.Join(dir, "a.flac"), -1)
	require.NoError(t, err)
	assert.Equal(t, third, got)
}

func TestNext_IgnoresUnrecognizedExtensions(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.flac")
	touch(t, dir, "notes.txt")
	b := touch(t, dir, "b.flac")

	got, err := navigator.Next(a, 1)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestNext_MissingCurrentStartsAtZero(t *testing.T) {
	dir := t.TempDir()
	first := touch(t, dir, "a.flac")
	touch(t, dir, "b.flac")

	got, err := navigator.Next(filepath.Join(dir, "deleted.flac"), 0)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestNext_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := navigator.Next(filepath.Join(dir, "nothing.flac"), 1)
	assert.ErrorIs(t, err, navigator.ErrEmptyDirectory)
}

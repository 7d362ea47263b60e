package albumart_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/br4qua/qua-play/albumart"
)

func writeN(t *testing.T, path string, n int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, n), 0o600))
}

func TestFind_PicksLargestMatchingImage(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "01 - track.flac")
	writeN(t, track, 10)

	small := filepath.Join(dir, "cover-small.jpg")
	big := filepath.Join(dir, "cover.png")
	writeN(t, small, 100)
	writeN(t, big, 5000)

	got, err := albumart.Find(track)
	require.NoError(t, err)
	assert.Equal(t, big, got)
}

func TestFind_IgnoresNonMatchingNames(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "01 - track.flac")
	writeN(t, track, 10)
	writeN(t, filepath.Join(dir, "booklet.jpg"), 50000)

	_, err := albumart.Find(track)
	assert.ErrorIs(t, err, albumart.ErrNoArtwork)
}

func TestFind_IgnoresUnrecognizedExtensions(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "01 - track.flac")
	writeN(t, track, 10)
	writeN(t, filepath.Join(dir, "cover.txt"), 50000)

	_, err := albumart.Find(track)
	assert.ErrorIs(t, err, albumart.ErrNoArtwork)
}

func TestFind_RecursesIntoSiblingScanDirectory(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "01 - track.flac")
	writeN(t, track, 10)

	scanDir := filepath.Join(dir, "Scans")
	require.NoError(t, os.Mkdir(scanDir, 0o755))

	scanned := filepath.Join(scanDir, "front.jpg")
	writeN(t, scanned, 99999)

	got, err := albumart.Find(track)
	require.NoError(t, err)
	assert.Equal(t, scanned, got)
}

package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadState_EmptyWhenMissing(t *testing.T) {
	got, err := readState(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestWriteState_ReadStateRoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeState(dir, "/music/album/track.flac"))

	got, err := readState(dir)
	require.NoError(t, err)
	assert.Equal(t, "/music/album/track.flac", got)
}

func TestWriteState_OverwritesPreviousEntry(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeState(dir, "/music/a.flac"))
	require.NoError(t, writeState(dir, "/music/b.flac"))

	got, err := readState(dir)
	require.NoError(t, err)
	assert.Equal(t, "/music/b.flac", got)
}

func TestAppendHistory_WritesOneLinePerCall(t *testing.T) {
	dir := t.TempDir()
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, appendHistory(dir, "/music/a.flac", when))
	require.NoError(t, appendHistory(dir, "/music/b.flac", when))

	data, err := os.ReadFile(filepath.Join(dir, historyFile))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02 03:04:05 /music/a.flac\n2026-01-02 03:04:05 /music/b.flac\n", string(data))
}

func TestLastPlayableFromHistory_SkipsDeletedEntries(t *testing.T) {
	dir := t.TempDir()
	when := time.Now()

	stillThere := filepath.Join(dir, "track.flac")
	require.NoError(t, os.WriteFile(stillThere, []byte("x"), 0o600))

	require.NoError(t, appendHistory(dir, filepath.Join(dir, "deleted.flac"), when))
	require.NoError(t, appendHistory(dir, stillThere, when))

	got, err := lastPlayableFromHistory(dir)
	require.NoError(t, err)
	assert.Equal(t, stillThere, got)
}

func TestLastPlayableFromHistory_WalksBackPastUnplayableEntries(t *testing.T) {
	dir := t.TempDir()
	when := time.Now()

	stillThere := filepath.Join(dir, "track.flac")
	require.NoError(t, os.WriteFile(stillThere, []byte("x"), 0o600))

	require.NoError(t, appendHistory(dir, stillThere, when))
	require.NoError(t, appendHistory(dir, filepath.Join(dir, "deleted-later.flac"), when))

	got, err := lastPlayableFromHistory(dir)
	require.NoError(t, err)
	assert.Equal(t, stillThere, got)
}

func TestLastPlayableFromHistory_EmptyWhenNoHistory(t *testing.T) {
	got, err := lastPlayableFromHistory(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestHistoryPath_MalformedLineIsIgnored(t *testing.T) {
	assert.Equal(t, "", historyPath("too-few-fields"))
	assert.Equal(t, "/music/a.flac", historyPath("2026-01-02 03:04:05 /music/a.flac"))
}

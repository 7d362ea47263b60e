package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/cache"
)

func TestFingerprint_StableForSameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.flac")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	fp1, err := cache.Fingerprint(path)
	require.NoError(t, err)

	fp2, err := cache.Fingerprint(path)
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.NotZero(t, fp1.Ino)
}

func TestLookup_MissingEntry(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Lookup(qua.Fingerprint{Ino: 999999, Mtime: 1})
	assert.False(t, ok)
}

func TestFill_BuildsOnceAndReusesEntry(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "track.flac")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	fp, err := cache.Fingerprint(path)
	require.NoError(t, err)

	calls := 0
	build := func(dstPath string) error {
		calls++
		return os.WriteFile(dstPath, []byte("built"), 0o600)
	}

	entryPath, err := c.Fill(fp, build)
	require.NoError(t, err)
	assert.FileExists(t, entryPath)
	assert.Equal(t, 1, calls)

	again, err := c.Fill(fp, build)
	require.NoError(t, err)
	assert.Equal(t, entryPath, again)
	assert.Equal(t, 1, calls, "second Fill must reuse the existing entry, not rebuild it")
}

func TestFill_LeavesNoEntryOnBuildFailure(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "track.flac")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	fp, err := cache.Fingerprint(path)
	require.NoError(t, err)

	buildErr := assert.AnError
	_, err = c.Fill(fp, func(dstPath string) error { return buildErr })
	assert.ErrorIs(t, err, buildErr)

	_, ok := c.Lookup(fp)
	assert.False(t, ok)
}

func TestManageSize_NoopBelowBudget(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.New(dir)
	require.NoError(t, err)

	old := filepath.Join(dir, "qua-1-1.wav")
	newer := filepath.Join(dir, "qua-2-2.wav")
	require.NoError(t, os.WriteFile(old, make([]byte, 1024), 0o600))
	require.NoError(t, os.WriteFile(newer, make([]byte, 1024), 0o600))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	// ManageSize only evicts once the directory exceeds cache.MaxBytes, so
	// this just exercises the no-op path below budget.
	require.NoError(t, c.ManageSize())
	assert.FileExists(t, old)
	assert.FileExists(t, newer)
}

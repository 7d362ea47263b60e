// Package cache addresses decoded-and-post-processed tracks by source file
// fingerprint (inode + mtime), keeping them as ready-to-stream WAV files
// under a tmpfs directory, and evicts the oldest-accessed entries once the
// directory grows past its byte budget.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"

	"github.com/br4qua/qua-play"
)

// DefaultDir is the cache directory, held on tmpfs so eviction never
// touches a spinning disk and a reboot clears it for free.
const DefaultDir = "/dev/shm/qua-cache"

// MaxBytes is the byte budget the cache is trimmed back to 70% of once
// exceeded.
const MaxBytes = 2 * 1024 * 1024 * 1024

// evictTargetFraction is the fraction of MaxBytes eviction trims down to.
const evictTargetFraction = 0.7

// Cache manages a single tmpfs-backed directory of post-processed WAV
// entries, deduplicating concurrent fills for the same source file.
type Cache struct {
	dir    string
	group  singleflight.Group
	maxLen int64
}

// New returns a Cache rooted at dir, creating it if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // cache dir is a shared tmpfs mount, world-readable by design.
		return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
	}

	return &Cache{dir: dir, maxLen: MaxBytes}, nil
}

// Fingerprint stats path and returns the (inode, mtime) pair that addresses
// its cache entry.
func Fingerprint(path string) (qua.Fingerprint, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return qua.Fingerprint{}, fmt.Errorf("cache: stat %s: %w", path, err)
	}

	return qua.Fingerprint{
		Ino:   st.Ino,
		Mtime: st.Mtim.Sec,
	}, nil
}

// PathFor returns the cache file path for fp, without checking existence.
func (c *Cache) PathFor(fp qua.Fingerprint) string {
	return filepath.Join(c.dir, fmt.Sprintf("qua-%x-%x.wav", fp.Ino, fp.Mtime))
}

// Lookup reports whether a cache entry already exists for fp and, if so,
// its path.
func (c *Cache) Lookup(fp qua.Fingerprint) (string, bool) {
	path := c.PathFor(fp)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}

	return path, true
}

// Fill resolves the cache entry for fp, calling build to produce it if (and
// only if) it doesn't already exist. Concurrent Fill calls for the same fp
// share a single build invocation — the second caller blocks on the first's
// result rather than redoing the decode/post-process work.
func (c *Cache) Fill(fp qua.Fingerprint, build func(dstPath string) error) (string, error) {
	if path, ok := c.Lookup(fp); ok {
		return path, nil
	}

	key := fmt.Sprintf("%x-%x", fp.Ino, fp.Mtime)

	path, err, _ := c.group.Do(key, func() (any, error) {
		if existing, ok := c.Lookup(fp); ok {
			return existing, nil
		}

		dst := c.PathFor(fp)
		tmp := dst + ".tmp"

		if buildErr := build(tmp); buildErr != nil {
			_ = os.Remove(tmp)

			return "", fmt.Errorf("cache: building %s: %w", dst, buildErr)
		}

		if renameErr := os.Rename(tmp, dst); renameErr != nil {
			_ = os.Remove(tmp)

			return "", fmt.Errorf("cache: renaming %s: %w", tmp, renameErr)
		}

		return dst, nil
	})
	if err != nil {
		return "", err
	}

	return path.(string), nil //nolint:forcetypeassert // only this function ever stores into the singleflight group.
}

type entry struct {
	path  string
	atime int64
	size  int64
}

// ManageSize evicts the least-recently-accessed entries until the
// directory's total size is back under 70% of MaxBytes. It is a no-op
// below the budget.
func (c *Cache) ManageSize() error {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("cache: reading %s: %w", c.dir, err)
	}

	entries := make([]entry, 0, len(dirEntries))

	var total int64

	for _, de := range dirEntries {
		if de.IsDir() || de.Name()[0] == '.' {
			continue
		}

		path := filepath.Join(c.dir, de.Name())

		var st unix.Stat_t
		if statErr := unix.Stat(path, &st); statErr != nil {
			continue
		}

		e := entry{path: path, atime: st.Atim.Sec, size: st.Size}
		entries = append(entries, e)
		total += e.size
	}

	if total <= c.maxLen {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].atime < entries[j].atime })

	target := int64(float64(c.maxLen) * evictTargetFraction)

	for _, e := range entries {
		if total <= target {
			break
		}

		if err := os.Remove(e.path); err != nil {
			continue
		}

		total -= e.size
	}

	return nil
}

// Package albumart locates cover art for a track: the largest image in its
// directory (plus one level into a sibling scan/scans directory) whose name
// starts with 'c' or 'f' and contains "cover" or "front".
package albumart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoArtwork is returned when no candidate image is found.
var ErrNoArtwork = errors.New("albumart: no matching artwork found")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".webp": true, ".bmp": true, ".tiff": true,
}

// Find returns the path to the largest candidate cover image for
// trackPath's directory, scanning one level into a sibling "scan"/"scans"
// directory (any case) as well.
func Find(trackPath string) (string, error) {
	dir := filepath.Dir(trackPath)

	var (
		winnerPath string
		winnerSize int64
	)

	consider := func(path string) {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return
		}

		if info.Size() > winnerSize {
			winnerSize = info.Size()
			winnerPath = path
		}
	}

	if err := scanDirectory(dir, consider); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("albumart: reading %s: %w", dir, err)
	}

	for _, de := range entries {
		if !de.IsDir() {
			continue
		}

		lower := strings.ToLower(de.Name())
		if lower != "scan" && lower != "scans" {
			continue
		}

		_ = scanDirectory(filepath.Join(dir, de.Name()), consider)
	}

	if winnerPath == "" {
		return "", ErrNoArtwork
	}

	return winnerPath, nil
}

// scanDirectory calls consider on every regular file in dir whose name
// matches the cover-art predicate.
func scanDirectory(dir string, consider func(path string)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("albumart: reading %s: %w", dir, err)
	}

	for _, de := range entries {
		if de.IsDir() {
			continue
		}

		if matchesNamePredicate(de.Name()) && matchesExtension(de.Name()) {
			consider(filepath.Join(dir, de.Name()))
		}
	}

	return nil
}

// matchesNamePredicate reports whether name starts with 'c' or 'f' and
// contains "cover" or "front", case-insensitively.
func matchesNamePredicate(name string) bool {
	lower := strings.ToLower(name)
	if len(lower) == 0 {
		return false
	}

	if lower[0] != 'c' && lower[0] != 'f' {
		return false
	}

	return strings.Contains(lower, "cover") || strings.Contains(lower, "front")
}

func matchesExtension(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

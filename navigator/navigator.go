// Package navigator resolves "next track" and "previous track" by listing
// the current track's directory in alphabetical order and wrapping around
// with modulo arithmetic — there is no playlist file, the filesystem
// directory is the playlist.
package navigator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/br4qua/qua-play/detect"
)

// ErrEmptyDirectory is returned when the current track's directory has no
// recognized audio files at all.
var ErrEmptyDirectory = errors.New("navigator: no recognized audio files in directory")

// Next returns the track offset positions away from currentPath within its
// directory, wrapping around at either end. offset may be negative (moving
// backward) or positive (moving forward); a magnitude greater than the
// directory's length wraps more than once, which is fine — Go's modulo
// handles that the same as a single wrap.
//
// If currentPath itself is not found in the listing (e.g. it was deleted
// out from under the player), navigation starts from index 0.
func Next(currentPath string, offset int) (string, error) {
	dir := filepath.Dir(currentPath)

	entries, err := listAudioFiles(dir)
	if err != nil {
		return "", err
	}

	if len(entries) == 0 {
		return "", ErrEmptyDirectory
	}

	curIdx := indexOf(entries, filepath.Base(currentPath))

	if curIdx < 0 {
		curIdx = 0
	}

	n := len(entries)
	next := (curIdx + offset) % n
	if next < 0 {
		next += n
	}

	return filepath.Join(dir, entries[next]), nil
}

// listAudioFiles returns the recognized-audio filenames in dir, sorted
// alphabetically, mirroring scandir+alphasort with an is_audio filter.
func listAudioFiles(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("navigator: reading %s: %w", dir, err)
	}

	names := make([]string, 0, len(dirEntries))

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		if detect.Recognized(de.Name()) {
			names = append(names, de.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}

	return -1
}

// Command qua-streamer is the real-time PCM streamer process: given a
// stereo WAV file and a sound-card device identifier, it plays the file
// with the lowest feasible jitter and exits after drain. It assumes the
// launcher has already pinned affinity, raised scheduling class, and
// disabled ASLR — it does not re-establish any of that itself.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/streamer"
)

var errUsage = errors.New("usage: qua-streamer <track.wav> <device-id>")

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(1)
	}

	if err := streamer.Play(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var qerr *qua.Error
	if errors.As(err, &qerr) {
		return 2
	}

	return 1
}

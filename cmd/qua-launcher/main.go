// Command qua-launcher applies real-time process hygiene — CPU pin,
// SCHED_FIFO priority, OOM immunity, disabled ASLR, closed fds, a new
// session — then execs into the player binary, replacing itself entirely.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/br4qua/qua-play/launcher"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, launcher.ErrMissingArgs)
		os.Exit(1)
	}

	cpuID, err := strconv.Atoi(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "qua-launcher: invalid cpu id %q: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	playerPath := os.Args[2]
	playerArgs := os.Args[3:]

	if err := launcher.Run(cpuID, playerPath, playerArgs); err != nil {
		fmt.Fprintln(os.Stderr, err)

		if errors.Is(err, launcher.ErrPlayerMissing) {
			os.Exit(2)
		}

		os.Exit(1)
	}
}

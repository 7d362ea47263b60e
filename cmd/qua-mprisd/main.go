// Command qua-mprisd registers the MPRIS media-control adapter on the
// session bus and blocks until SIGINT or SIGTERM, answering method calls
// and property reads against a shared orchestrator.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/br4qua/qua-play/cache"
	"github.com/br4qua/qua-play/control/mpris"
	"github.com/br4qua/qua-play/orchestrator"
	"github.com/br4qua/qua-play/policy"
)

func main() {
	c, err := cache.New(cache.DefaultDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	orch, err := orchestrator.New(c, policy.Config{}, orchestrator.Config{
		CPUID:        4,
		DeviceID:     "hw:0,0",
		LauncherPath: "qua-launcher",
		StreamerPath: "qua-streamer",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := mpris.Register(orch); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "[qua-mprisd] registered org.mpris.MediaPlayer2.qua")

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}

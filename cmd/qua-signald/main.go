// Command qua-signald runs the control-plane signal daemon: SIGUSR1/
// SIGUSR2/SIGCONT dispatch next/previous/play against a shared orchestrator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/br4qua/qua-play/cache"
	"github.com/br4qua/qua-play/control/signals"
	"github.com/br4qua/qua-play/orchestrator"
	"github.com/br4qua/qua-play/policy"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	daemon := &signals.Daemon{Orch: orch}

	if err := daemon.AcquireLock(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer daemon.Close()

	fmt.Fprintf(os.Stderr, "[qua-signald] running (pid %d)\n", os.Getpid())

	if err := daemon.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

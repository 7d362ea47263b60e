// Command qua-socketd runs the control-plane Unix socket daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/br4qua/qua-play/cache"
	"github.com/br4qua/qua-play/control/socket"
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

	cfg := orchestrator.Config{
		CPUID:        envInt("QUA_CPU", 4),
		DeviceID:     envOr("QUA_DEVICE", "hw:0,0"),
		LauncherPath: envOr("QUA_LAUNCHER", "qua-launcher"),
		StreamerPath: envOr("QUA_STREAMER", "qua-streamer"),
	}

	orch, err := orchestrator.New(c, policy.Config{}, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	daemon := &socket.Daemon{Orch: orch}

	ln, err := daemon.Listen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer daemon.Close()

	fmt.Fprintf(os.Stderr, "[qua-socketd] listening on %s\n", daemon.SocketPath)

	if err := daemon.Serve(ctx, ln); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}

	return n
}

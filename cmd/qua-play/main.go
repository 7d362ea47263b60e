// Command qua-play is the play-orchestrator CLI: resolve a track (explicit
// path, navigator offset, or resume), fill the cache, and launch the
// streamer through the launcher.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/br4qua/qua-play/cache"
	"github.com/br4qua/qua-play/navigator"
	"github.com/br4qua/qua-play/orchestrator"
	"github.com/br4qua/qua-play/policy"
	"github.com/br4qua/qua-play/version"
)

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:      version.Name(),
		Usage:     "Resolve, decode, and play an audio track",
		Version:   version.Version() + " (" + version.Commit() + " - " + version.Date() + ")",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "n", Usage: "step forward N tracks from the last played"},
			&cli.IntFlag{Name: "p", Usage: "step backward N tracks from the last played"},
			&cli.IntFlag{Name: "cpu", Value: 4, Usage: "CPU core id passed to the launcher"},
			&cli.StringFlag{Name: "device", Value: "hw:0,0", Usage: "ALSA device id"},
			&cli.StringFlag{Name: "launcher", Value: "qua-launcher", Usage: "path to the launcher binary"},
			&cli.StringFlag{Name: "streamer", Value: "qua-streamer", Usage: "path to the streamer binary"},
			&cli.StringFlag{Name: "cache-dir", Value: cache.DefaultDir, Usage: "cache directory"},
		},
		Action: runPlay,
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	orch, err := buildOrchestrator(cmd)
	if err != nil {
		return err
	}

	offset := cmd.Int("n") - cmd.Int("p")

	switch {
	case cmd.NArg() > 0:
		return orch.Play(ctx, cmd.Args().First())
	case offset != 0:
		current, err := orch.Show()
		if err != nil {
			return err
		}

		if current == "" {
			return orchestrator.ErrNoTrack
		}

		next, err := navigator.Next(current, offset)
		if err != nil {
			return fmt.Errorf("navigating: %w", err)
		}

		return orch.Play(ctx, next)
	default:
		return orch.Play(ctx, "")
	}
}

func buildOrchestrator(cmd *cli.Command) (*orchestrator.Orchestrator, error) {
	c, err := cache.New(cmd.String("cache-dir"))
	if err != nil {
		return nil, err
	}

	cfg := orchestrator.Config{
		CPUID:        cmd.Int("cpu"),
		DeviceID:     cmd.String("device"),
		LauncherPath: cmd.String("launcher"),
		StreamerPath: cmd.String("streamer"),
	}

	return orchestrator.New(c, policy.Config{}, cfg)
}

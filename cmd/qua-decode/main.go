// Command qua-decode is a development aid for inspecting the decode/
// post-process pipeline outside the full play flow: decode a single track
// to WAV (or raw PCM), or print its detected format and exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/br4qua/qua-play/decode"
	"github.com/br4qua/qua-play/version"
	"github.com/br4qua/qua-play/wav"
)

var errInvalidArgCount = errors.New("expected exactly one argument: file path")

func main() {
	cmd := &cli.Command{
		Name:      version.Name() + "-decode",
		Usage:     "Decode a track to WAV and inspect its format",
		ArgsUsage: "<file>",
		Version:   version.Version() + " (" + version.Commit() + " - " + version.Date() + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "-",
				Usage:   "output file path (- for stdout)",
			},
			&cli.BoolFlag{
				Name:    "info",
				Aliases: []string{"i"},
				Usage:   "print format info and exit without emitting audio",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "emit raw PCM instead of WAV",
			},
		},
		Action: runDecode,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runDecode(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	srcPath := cmd.Args().First()

	tmp, err := os.CreateTemp("", "qua-decode-*.wav")
	if err != nil {
		return fmt.Errorf("creating scratch file: %w", err)
	}

	tmpPath := tmp.Name()
	tmp.Close()

	defer os.Remove(tmpPath)

	result, err := decode.ToWAV(ctx, srcPath, tmpPath)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", srcPath, err)
	}

	if cmd.Bool("info") {
		fmt.Fprintf(os.Stderr, "sample rate: %d Hz\n", result.Format.SampleRate)
		fmt.Fprintf(os.Stderr, "bit depth:   %d\n", result.Format.BitDepth)
		fmt.Fprintf(os.Stderr, "channels:    %d\n", result.Format.Channels)

		return nil
	}

	in, err := os.Open(tmpPath) //nolint:gosec // tmpPath is a scratch file this process just created.
	if err != nil {
		return fmt.Errorf("reopening decoded output: %w", err)
	}
	defer in.Close()

	if !cmd.Bool("raw") {
		return copyTo(cmd.String("output"), in)
	}

	pcm, _, err := wav.Decode(in)
	if err != nil {
		return fmt.Errorf("reading back decoded PCM: %w", err)
	}

	return writeBytes(cmd.String("output"), pcm)
}

func copyTo(output string, r io.Reader) error {
	if output == "-" {
		_, err := io.Copy(os.Stdout, r)
		return err
	}

	out, err := os.Create(output) //nolint:gosec // output is an operator-supplied CLI argument.
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	return nil
}

func writeBytes(output string, data []byte) error {
	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	return os.WriteFile(output, data, 0o644) //nolint:gosec // output is an operator-supplied CLI argument.
}

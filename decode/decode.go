// Package decode dispatches a source track to its decoder: FLAC and WavPack
// run in-process against the native libraries, WAV is read in-process and
// re-encoded, and every other recognized extension is handed to the
// canonical external converter for that format
// and the decoder waits for its exit status. The decoder never publishes to
// the cache directly — callers supply the destination path.
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/detect"
	"github.com/br4qua/qua-play/flac"
	"github.com/br4qua/qua-play/wav"
	"github.com/br4qua/qua-play/wavpack"
)

var (
	// ErrUnsupported is returned for an extension detect does not recognize.
	ErrUnsupported = errors.New("unsupported audio format")
	// ErrConverterFailed is returned when an external converter exits nonzero.
	ErrConverterFailed = errors.New("external converter failed")
)

// converters maps a codec to the external program invocation that converts
// it to WAV, mirroring the canonical tool qua-next picked historically for
// each format. argsFor receives (srcPath, dstPath) and returns the full
// argv, since each tool takes its input/output differently.
var converters = map[detect.Codec]struct {
	program string
	argsFor func(src, dst string) []string
}{
	detect.MP3:  {"mpg123", func(src, dst string) []string { return []string{"-w", dst, src} }},
	detect.M4A:  {"ffmpeg", ffmpegArgs},
	detect.AIFF: {"ffmpeg", ffmpegArgs},
	detect.APE:  {"mac", func(src, dst string) []string { return []string{src, "-d", dst} }},
	detect.Opus: {"opusdec", func(src, dst string) []string { return []string{"--force-wav", src, dst} }},
	detect.Ogg:  {"oggdec", func(src, dst string) []string { return []string{src, "-o", dst} }},
}

func ffmpegArgs(src, dst string) []string {
	return []string{"-v", "quiet", "-i", src, "-f", "wav", dst}
}

// Result is what a single decode produces: the WAV file written at the
// caller-supplied destination path, plus the format detected from the
// source (before any post-processing resamples or requantizes it).
type Result struct {
	Format qua.PCMFormat
}

// ToWAV decodes srcPath (dispatched by detect.ByExtension) and writes a WAV
// file to dstPath at the source's native rate and bit depth. FLAC, WavPack
// and WAV decode in-process; everything else spawns the format's canonical
// external converter and waits for it to exit.
func ToWAV(ctx context.Context, srcPath, dstPath string) (Result, error) {
	codec, ok := detect.ByExtension(srcPath)
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", srcPath, ErrUnsupported)
	}

	switch codec {
	case detect.FLAC:
		return decodeNative(srcPath, dstPath, flac.Decode)
	case detect.WAV:
		return decodeNative(srcPath, dstPath, wav.Decode)
	case detect.WavPack:
		return decodeWavPack(srcPath, dstPath)
	default:
		return decodeExternal(ctx, codec, srcPath, dstPath)
	}
}

type readerDecodeFunc func(rs io.ReadSeeker) ([]byte, qua.PCMFormat, error)

func decodeNative(srcPath, dstPath string, decodeFn readerDecodeFunc) (Result, error) {
	src, err := os.Open(srcPath) //nolint:gosec // srcPath is an operator-supplied track reference.
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer src.Close()

	pcm, format, err := decodeFn(src)
	if err != nil {
		return Result{}, fmt.Errorf("decoding %s: %w", srcPath, err)
	}

	if err := writeWAVOutput(dstPath, pcm, format); err != nil {
		return Result{}, err
	}

	return Result{Format: format}, nil
}

func decodeWavPack(srcPath, dstPath string) (Result, error) {
	pcm, format, err := wavpack.Decode(srcPath)
	if err != nil {
		return Result{}, fmt.Errorf("decoding %s: %w", srcPath, err)
	}

	if err := writeWAVOutput(dstPath, pcm, format); err != nil {
		return Result{}, err
	}

	return Result{Format: format}, nil
}

func writeWAVOutput(dstPath string, pcm []byte, format qua.PCMFormat) error {
	out, err := os.Create(dstPath) //nolint:gosec // dstPath is caller-supplied, scoped to a cache/temp directory.
	if err != nil {
		return fmt.Errorf("creating %s: %w", dstPath, err)
	}
	defer out.Close()

	if err := wav.Encode(out, pcm, format); err != nil {
		return fmt.Errorf("writing %s: %w", dstPath, err)
	}

	return nil
}

// decodeExternal spawns the canonical converter for codec and, on success,
// reads back dstPath's header to report the detected format.
func decodeExternal(ctx context.Context, codec detect.Codec, srcPath, dstPath string) (Result, error) {
	conv, ok := converters[codec]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", codec, ErrUnsupported)
	}

	cmd := exec.CommandContext(ctx, conv.program, conv.argsFor(srcPath, dstPath)...) //nolint:gosec // program/args come from a fixed internal table, not user input.

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("%s %s: %w: %w", conv.program, srcPath, ErrConverterFailed, err)
	}

	out, err := os.Open(dstPath) //nolint:gosec // dstPath is a path this function itself just created.
	if err != nil {
		return Result{}, fmt.Errorf("opening converter output %s: %w", dstPath, err)
	}
	defer out.Close()

	format, err := wav.ReadFormat(out)
	if err != nil {
		return Result{}, fmt.Errorf("reading converter output format: %w", err)
	}

	return Result{Format: format}, nil
}

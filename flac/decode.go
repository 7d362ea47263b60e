// Package flac decodes FLAC streams in-process: one of the two lossless
// codecs the cache fills without spawning an external converter.
package flac

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goflac "github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/br4qua/qua-play"
)

var errBitDepth = errors.New("unsupported bit depth")

// Decode reads a FLAC stream and decodes it to interleaved little-endian
// signed PCM bytes. Native bit depth is preserved (16-bit FLAC produces
// s16le, 24-bit produces s24le, etc.) — the cache's target policy, not the
// decoder, is responsible for requantizing.
func Decode(rs io.ReadSeeker) ([]byte, qua.PCMFormat, error) {
	stream, err := goflac.New(rs)
	if err != nil {
		return nil, qua.PCMFormat{}, fmt.Errorf("opening flac: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	nChannels := int(info.NChannels)

	bitDepth, err := qua.ToBitDepth(info.BitsPerSample)
	if err != nil {
		return nil, qua.PCMFormat{}, fmt.Errorf("%w: %w", errBitDepth, err)
	}

	bytesPerSample := bitDepth.BytesPerSample()

	format := qua.PCMFormat{
		SampleRate: int(info.SampleRate),
		BitDepth:   bitDepth,
		Channels:   uint(nChannels), //nolint:gosec // nChannels comes from uint8, always fits in uint.
	}

	// Pre-allocate output buffer when total sample count is known.
	var buf []byte
	if info.NSamples > 0 {
		//nolint:gosec // NSamples (uint64) fits in int for any real audio file.
		buf = make([]byte, 0, int(info.NSamples)*nChannels*bytesPerSample)
	}

	// Scratch buffer for one interleaved frame (reused across iterations).
	var scratch []byte

	for {
		audioFrame, parseErr := stream.ParseNext()
		if errors.Is(parseErr, io.EOF) {
			break
		}

		if parseErr != nil {
			return nil, qua.PCMFormat{}, fmt.Errorf("decoding frame: %w", parseErr)
		}

		blockSize := int(audioFrame.BlockSize)
		frameBytes := blockSize * nChannels * bytesPerSample

		if cap(scratch) < frameBytes {
			scratch = make([]byte, frameBytes)
		} else {
			scratch = scratch[:frameBytes]
		}

		interleave(scratch, audioFrame.Subframes, blockSize, nChannels, bitDepth)
		buf = append(buf, scratch...)
	}

	return buf, format, nil
}

// sampleWriter packs one decoded int32 subframe sample into dst at pos and
// returns the number of bytes written. Picking the writer once per frame
// (see writerFor) instead of branching on bit depth inside the sample loop
// collapses what was four near-identical nested loops into one, at the cost
// of an indirect call per sample — FLAC decode runs ahead of playback while
// filling the cache, not on the streamer's hot path, so that trade is free.
type sampleWriter func(dst []byte, pos int, s int32) int

func writeS8(dst []byte, pos int, s int32) int {
	dst[pos] = byte(int8(s)) //nolint:gosec // Intentional int32-to-int8 truncation.

	return pos + 1
}

func writeS16(dst []byte, pos int, s int32) int {
	binary.LittleEndian.PutUint16(dst[pos:], uint16(int16(s))) //nolint:gosec // Intentional int32-to-int16 truncation.

	return pos + 2
}

// writeS24 packs a sign-extended 20- or 24-bit FLAC sample as 3 little-endian
// bytes. FLAC carries both depths in a 32-bit container, and qua.BitDepth
// gives both the same 3-byte width, so one writer serves either depth — the
// only depth-specific step, byte count, is already captured by
// qua.BitDepth.BytesPerSample rather than by this function.
func writeS24(dst []byte, pos int, s int32) int {
	dst[pos] = byte(s)
	dst[pos+1] = byte(s >> 8)
	dst[pos+2] = byte(s >> 16)

	return pos + 3
}

func writeS32(dst []byte, pos int, s int32) int {
	binary.LittleEndian.PutUint32(dst[pos:], uint32(s)) //nolint:gosec // int32-to-uint32 reinterpretation.

	return pos + 4
}

func writerFor(depth qua.BitDepth) sampleWriter {
	switch depth {
	case qua.Depth8:
		return writeS8
	case qua.Depth16:
		return writeS16
	case qua.Depth20, qua.Depth24:
		return writeS24
	case qua.Depth32:
		return writeS32
	default:
		panic(fmt.Sprintf("flac: interleave called with unsupported bit depth %d", depth))
	}
}

// interleave writes decoded subframe samples into dst as interleaved
// little-endian signed PCM.
func interleave(dst []byte, subframes []*frame.Subframe, blockSize, nChannels int, depth qua.BitDepth) {
	write := writerFor(depth)
	pos := 0

	for i := range blockSize {
		for ch := range nChannels {
			pos = write(dst, pos, subframes[ch].Samples[i])
		}
	}
}

// Package qua holds the types shared across every component of the player:
// decode-time PCM format description, the cache target policy, the
// fingerprint used to address cache entries, and the small error-kind
// wrapper used for exit-code selection on the CLI entry points.
package qua

import (
	"errors"
	"fmt"
)

// BitDepth is the bit depth of decoded (native) PCM samples, as detected
// from a source file. Distinct from TargetBitDepth because the recognized
// sets differ: a decoder may hand back 8, 20, or 24-bit audio that the
// cache will never store directly.
type BitDepth uint

// Bit depths a decoder may report.
const (
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
	Depth20 BitDepth = 20
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// BytesPerSample returns the number of bytes needed to store one sample.
// 20-bit samples are stored in 3 bytes (left-aligned in 24-bit).
func (d BitDepth) BytesPerSample() int {
	switch d {
	case Depth8:
		return 1
	case Depth16:
		return 2
	case Depth20, Depth24:
		return 3
	case Depth32:
		return 4
	default:
		panic(fmt.Sprintf("qua: BytesPerSample called with unsupported bit depth %d", d))
	}
}

var errUnsupportedBitDepth = errors.New("unsupported bit depth")

// ToBitDepth converts a numeric bit depth to the BitDepth type.
func ToBitDepth(bps uint8) (BitDepth, error) {
	switch BitDepth(bps) {
	case Depth8:
		return Depth8, nil
	case Depth16:
		return Depth16, nil
	case Depth20:
		return Depth20, nil
	case Depth24:
		return Depth24, nil
	case Depth32:
		return Depth32, nil
	default:
		return 0, fmt.Errorf("%d-bit: %w", bps, errUnsupportedBitDepth)
	}
}

// TargetBitDepth is a cache/target bit depth: the only two values the
// target policy (and therefore every cache entry) may ever resolve to.
type TargetBitDepth uint

// Recognized target bit depths.
const (
	TargetDepth16 TargetBitDepth = 16
	TargetDepth32 TargetBitDepth = 32
)

// Valid reports whether d is one of the recognized target bit depths.
func (d TargetBitDepth) Valid() bool {
	return d == TargetDepth16 || d == TargetDepth32
}

// AsBitDepth widens a target bit depth to the general BitDepth type, for
// code paths (WAV encode, post-process) that operate on either.
func (d TargetBitDepth) AsBitDepth() BitDepth {
	return BitDepth(d)
}

// PCMFormat describes the format of raw interleaved PCM audio data.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

// TargetPolicy is the declarative rule set that turns a detected
// (bit_depth, sample_rate) pair into the bit depth and sample rate actually
// written to a cache entry.
type TargetPolicy struct {
	BitDepth   TargetBitDepth
	SampleRate int
}

// RecognizedSampleRates is the fixed set of sample rates the target policy
// may select (either directly, via override, or as the fallback).
var RecognizedSampleRates = map[int]bool{
	44100: true, 48000: true, 88200: true, 96000: true,
	176400: true, 192000: true, 352800: true, 384000: true,
}

// Fingerprint is the (inode, mtime) pair that uniquely identifies a source
// file's cache entry on this host.
type Fingerprint struct {
	Ino   uint64
	Mtime int64
}

// Package policy resolves the bit depth and sample rate a cache entry is
// written at: an operator override wins when it is set and is itself a
// recognized value (an unrecognized sample-rate override is ignored);
// otherwise the detected value is kept when it's one this player
// recognizes; otherwise a fixed fallback is used. Bit depth and sample rate
// resolve independently.
package policy

import "github.com/br4qua/qua-play"

// FallbackSampleRate is used when the detected sample rate isn't one of
// qua.RecognizedSampleRates and no override is configured.
const FallbackSampleRate = 96000

// FallbackBitDepth is used when the detected bit depth isn't 16 or 32 and
// no override is configured.
const FallbackBitDepth = qua.TargetDepth32

// Config carries the operator-settable overrides. A zero value for either
// field means "no override" — resolution falls through to detected-or-fallback.
type Config struct {
	BitDepthOverride   qua.TargetBitDepth
	SampleRateOverride int
}

// Resolve turns a detected (bit_depth, sample_rate) pair into the target
// policy a cache entry will be built at.
func (c Config) Resolve(detectedDepth qua.BitDepth, detectedRate int) qua.TargetPolicy {
	return qua.TargetPolicy{
		BitDepth:   c.resolveBitDepth(detectedDepth),
		SampleRate: c.resolveSampleRate(detectedRate),
	}
}

func (c Config) resolveBitDepth(detected qua.BitDepth) qua.TargetBitDepth {
	if c.BitDepthOverride.Valid() {
		return c.BitDepthOverride
	}

	if target := qua.TargetBitDepth(detected); target.Valid() {
		return target
	}

	return FallbackBitDepth
}

func (c Config) resolveSampleRate(detected int) int {
	if c.SampleRateOverride != 0 && qua.RecognizedSampleRates[c.SampleRateOverride] {
		return c.SampleRateOverride
	}

	if qua.RecognizedSampleRates[detected] {
		return detected
	}

	return FallbackSampleRate
}

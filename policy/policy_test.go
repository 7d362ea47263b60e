package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/policy"
)

func TestResolve_OverrideWins(t *testing.T) {
	cfg := policy.Config{
		BitDepthOverride:   qua.TargetDepth16,
		SampleRateOverride: 44100,
	}

	got := cfg.Resolve(qua.Depth24, 96000)
	assert.Equal(t, qua.TargetDepth16, got.BitDepth)
	assert.Equal(t, 44100, got.SampleRate)
}

func TestResolve_DetectedKeptWhenRecognized(t *testing.T) {
	var cfg policy.Config

	got := cfg.Resolve(qua.Depth16, 48000)
	assert.Equal(t, qua.TargetDepth16, got.BitDepth)
	assert.Equal(t, 48000, got.SampleRate)
}

func TestResolve_FallsBackWhenDetectedUnrecognized(t *testing.T) {
	var cfg policy.Config

	got := cfg.Resolve(qua.Depth20, 22050)
	assert.Equal(t, policy.FallbackBitDepth, got.BitDepth)
	assert.Equal(t, policy.FallbackSampleRate, got.SampleRate)
}

func TestResolve_OverrideIgnoredWhenUnrecognizedSampleRate(t *testing.T) {
	cfg := policy.Config{SampleRateOverride: 22050}

	got := cfg.Resolve(qua.Depth16, 44100)
	assert.Equal(t, 44100, got.SampleRate)
}

package postprocess

import (
	"bytes"
	"fmt"

	"github.com/zaf/resample"

	"github.com/br4qua/qua-play"
)

// Resample converts 2-channel PCM at format's sample rate to targetRate,
// preserving bit depth. soxr (via zaf/resample) does the heavy lifting; a
// no-op is returned unchanged when the rates already match.
func Resample(pcm []byte, format qua.PCMFormat, targetRate int) ([]byte, error) {
	if format.SampleRate == targetRate {
		return pcm, nil
	}

	bitDepth, err := soxrBitDepth(format.BitDepth)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer

	r, err := resample.New(
		&out,
		float64(format.SampleRate),
		float64(targetRate),
		int(format.Channels), //nolint:gosec // channel count is always small (1, 2, or 6).
		bitDepth,
		resample.VeryHighQ,
	)
	if err != nil {
		return nil, fmt.Errorf("postprocess: creating resampler: %w", err)
	}
	defer r.Close()

	if _, err := r.Write(pcm); err != nil {
		return nil, fmt.Errorf("postprocess: resampling: %w", err)
	}

	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("postprocess: closing resampler: %w", err)
	}

	return out.Bytes(), nil
}

// soxrBitDepth maps a native PCM bit depth to the sample format soxr needs
// to be told it's working with. 20-bit samples use the same 3-byte
// container as 24-bit, so both map to soxr's I24. 8-bit streams are not
// widened before this stage and are rejected here with an error.
func soxrBitDepth(depth qua.BitDepth) (resample.BitDepth, error) {
	switch depth {
	case qua.Depth16:
		return resample.I16, nil
	case qua.Depth24, qua.Depth20:
		return resample.I24, nil
	case qua.Depth32:
		return resample.I32, nil
	default:
		return 0, fmt.Errorf("postprocess: unsupported bit depth for resample: %d", depth)
	}
}

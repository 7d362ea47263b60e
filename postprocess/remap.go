// Package postprocess turns a decoder's native-channel, native-rate PCM
// output into the cache's canonical 2-channel format: channel remap (mono
// duplication, 5.1 downmix, or passthrough), sample-rate resampling, and
// integer bit-depth requantization.
package postprocess

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/br4qua/qua-play"
)

// downmix coefficient applied to the center and surround channels when
// folding 5.1 down to stereo: L = FL + 0.707*FC + 0.707*BL,
// R = FR + 0.707*FC + 0.707*BR. Matches the sox "remix" recipe this system
// used historically (1,3v0.707,5v0.707 / 2,3v0.707,6v0.707).
const downmixCoeff = 0.707

var errUnsupportedChannels = errors.New("postprocess: unsupported channel count for remap")

// channel indices into a 5.1 (FL FR FC LFE BL BR) interleaved frame.
const (
	ch51FL = 0
	ch51FR = 1
	ch51FC = 2
	ch51LFE = 3
	ch51BL = 4
	ch51BR = 5
)

// Remap converts native PCM of any supported bit depth to 2-channel PCM at
// the same bit depth, handling the three channel counts this player ever sees:
// mono (duplicated to stereo), 5.1 (downmixed), and already-stereo
// (returned unchanged). Any other channel count is a hard error — the
// player has no remap recipe for it.
func Remap(pcm []byte, format qua.PCMFormat) ([]byte, error) {
	switch format.Channels {
	case 2:
		return pcm, nil
	case 1:
		return duplicateMono(pcm, format.BitDepth)
	case 6:
		return downmix51(pcm, format.BitDepth)
	default:
		return nil, fmt.Errorf("%w: %d", errUnsupportedChannels, format.Channels)
	}
}

// duplicateMono writes every mono sample to both the left and right channel.
func duplicateMono(pcm []byte, depth qua.BitDepth) ([]byte, error) {
	bps := depth.BytesPerSample()
	if len(pcm)%bps != 0 {
		return nil, fmt.Errorf("%w: pcm length %d not a multiple of %d bytes", errUnsupportedChannels, len(pcm), bps)
	}

	nSamples := len(pcm) / bps
	out := make([]byte, nSamples*2*bps)

	for i := range nSamples {
		copy(out[i*2*bps:], pcm[i*bps:(i+1)*bps])
		copy(out[i*2*bps+bps:], pcm[i*bps:(i+1)*bps])
	}

	return out, nil
}

// downmix51 folds a 5.1 interleaved frame down to stereo using fixed
// center/surround coefficients. Decoding happens in float64 regardless of
// source bit depth, then requantizes back to depth on the way out.
func downmix51(pcm []byte, depth qua.BitDepth) ([]byte, error) {
	bps := depth.BytesPerSample()
	frameBytes := bps * 6

	if len(pcm)%frameBytes != 0 {
		return nil, fmt.Errorf("%w: pcm length %d not a multiple of a 5.1 frame (%d bytes)", errUnsupportedChannels, len(pcm), frameBytes)
	}

	nFrames := len(pcm) / frameBytes
	out := make([]byte, nFrames*2*bps)

	for i := range nFrames {
		frame := pcm[i*frameBytes : (i+1)*frameBytes]

		fl := readSigned(frame[ch51FL*bps:], bps)
		fr := readSigned(frame[ch51FR*bps:], bps)
		fc := readSigned(frame[ch51FC*bps:], bps)
		bl := readSigned(frame[ch51BL*bps:], bps)
		br := readSigned(frame[ch51BR*bps:], bps)

		left := float64(fl) + downmixCoeff*float64(fc) + downmixCoeff*float64(bl)
		right := float64(fr) + downmixCoeff*float64(fc) + downmixCoeff*float64(br)

		writeSignedClamped(out[i*2*bps:], left, bps)
		writeSignedClamped(out[i*2*bps+bps:], right, bps)
	}

	return out, nil
}

// readSigned reads a little-endian signed integer of width bps from buf.
func readSigned(buf []byte, bps int) int64 {
	switch bps {
	case 1:
		return int64(int8(buf[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(buf)))
	case 3:
		v := int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16
		// sign-extend the 24th bit
		if v&0x800000 != 0 {
			v |= ^int32(0xFFFFFF)
		}

		return int64(v)
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(buf)))
	default:
		panic(fmt.Sprintf("postprocess: readSigned called with unsupported width %d", bps))
	}
}

// writeSignedClamped clamps v to the range representable in bps bytes and
// writes it little-endian.
func writeSignedClamped(dst []byte, v float64, bps int) {
	maxVal := float64(int64(1)<<(bps*8-1) - 1)
	minVal := -maxVal - 1

	if v > maxVal {
		v = maxVal
	}

	if v < minVal {
		v = minVal
	}

	iv := int64(v)

	switch bps {
	case 1:
		dst[0] = byte(int8(iv))
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(int16(iv)))
	case 3:
		dst[0] = byte(iv)
		dst[1] = byte(iv >> 8)
		dst[2] = byte(iv >> 16)
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(int32(iv)))
	}
}

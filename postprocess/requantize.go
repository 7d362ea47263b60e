package postprocess

import "github.com/br4qua/qua-play"

// Requantize converts pcm at srcDepth to dstDepth, zero-padding or
// truncating the low-order bits as appropriate. The 24-to-32 direction is
// the one this player's target policy actually selects in practice (WAV's
// 24-bit is already left-aligned in a 3-byte container, so widening is a
// pure byte-shuffle with no dithering needed); it has a dedicated fast path.
func Requantize(pcm []byte, srcDepth, dstDepth qua.BitDepth) []byte {
	if srcDepth == dstDepth {
		return pcm
	}

	if srcDepth == qua.Depth24 && dstDepth == qua.Depth32 {
		return requantize24to32(pcm)
	}

	return requantizeGeneric(pcm, srcDepth, dstDepth)
}

// requantize24to32 zero-pads the LSB of each 24-bit sample into a 32-bit
// container: out[4i+0]=0, out[4i+1..3] = in[3i+0..2]. This mirrors the
// original fixed-point convert_24bit_to_32bit_wav routine exactly — no
// floating point, no rounding, just a byte shift.
func requantize24to32(pcm []byte) []byte {
	nSamples := len(pcm) / 3
	out := make([]byte, nSamples*4)

	for i := range nSamples {
		out[i*4+0] = 0
		out[i*4+1] = pcm[i*3+0]
		out[i*4+2] = pcm[i*3+1]
		out[i*4+3] = pcm[i*3+2]
	}

	return out
}

// requantizeGeneric handles every other src/dst bit depth pair by
// sign-extending to int64 and shifting by the difference in container
// width, so widening zero-pads the low-order bytes and narrowing drops them.
func requantizeGeneric(pcm []byte, srcDepth, dstDepth qua.BitDepth) []byte {
	srcBps := srcDepth.BytesPerSample()
	dstBps := dstDepth.BytesPerSample()
	shift := (dstBps - srcBps) * 8
	nSamples := len(pcm) / srcBps
	out := make([]byte, nSamples*dstBps)

	for i := range nSamples {
		v := readSigned(pcm[i*srcBps:], srcBps)
		if shift >= 0 {
			v <<= shift
		} else {
			v >>= -shift
		}

		writeSignedClamped(out[i*dstBps:], float64(v), dstBps)
	}

	return out
}

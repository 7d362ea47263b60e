// Package wavpack decodes WavPack streams in-process via libwavpack — the
// second of the two codecs the decoder handles natively rather than
// shelling out to an external converter.
package wavpack

// #cgo pkg-config: wavpack
// #include <stdlib.h>
// #include <wavpack/wavpack.h>
import "C"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"github.com/br4qua/qua-play"
)

var (
	errOpen    = errors.New("wavpack: open failed")
	errDecode  = errors.New("wavpack: decode failed")
	errNoAudio = errors.New("wavpack: no channels or sample rate reported")
)

// chunkSamples is the frame count pulled per WavpackUnpackSamples call.
const chunkSamples = 4096

// Decode reads path and returns interleaved little-endian signed PCM bytes
// at the stream's native bit depth and sample rate.
//
// WavPack only exposes a path-based open, not a stream/reader one, so unlike
// flac.Decode and wav.Decode this takes a filesystem path rather than an
// io.ReadSeeker.
func Decode(path string) ([]byte, qua.PCMFormat, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var cErr [80]C.char

	wpc := C.WavpackOpenFileInput(cPath, &cErr[0], C.OPEN_TAGS|C.OPEN_WVC|C.OPEN_DSD_AS_PCM, 0)
	if wpc == nil {
		return nil, qua.PCMFormat{}, fmt.Errorf("%w: %s", errOpen, C.GoString(&cErr[0]))
	}
	defer C.WavpackCloseFile(wpc)

	channels := uint(C.WavpackGetNumChannels(wpc))
	sampleRate := int(C.WavpackGetSampleRate(wpc))
	bitsPerSample := uint8(C.WavpackGetBitsPerSample(wpc)) //nolint:gosec // libwavpack reports 8/16/24/32.

	if channels == 0 || sampleRate == 0 {
		return nil, qua.PCMFormat{}, errNoAudio
	}

	bitDepth, err := qua.ToBitDepth(bitsPerSample)
	if err != nil {
		return nil, qua.PCMFormat{}, fmt.Errorf("wavpack: %w", err)
	}

	format := qua.PCMFormat{
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
	}

	pcm, err := unpack(wpc, int(channels), bitDepth)
	if err != nil {
		return nil, qua.PCMFormat{}, err
	}

	return pcm, format, nil
}

// unpack pulls every sample out of wpc in chunks, requantizing from
// libwavpack's native int32-per-sample representation down to depth's
// packed byte width as it goes. WavPack hands back samples already
// interleaved, so no channel shuffling is needed here.
func unpack(wpc *C.WavpackContext, channels int, depth qua.BitDepth) ([]byte, error) {
	buf := make([]C.int32_t, chunkSamples*channels)

	var out []byte

	bytesPerSample := depth.BytesPerSample()

	for {
		unpacked := C.WavpackUnpackSamples(wpc, &buf[0], C.uint32_t(chunkSamples))
		if unpacked == 0 {
			break
		}

		n := int(unpacked) * channels
		start := len(out)
		out = append(out, make([]byte, n*bytesPerSample)...)
		writeSamples(out[start:], buf[:n], depth)
	}

	if len(out) == 0 {
		return nil, errDecode
	}

	return out, nil
}

// writeSamples packs n libwavpack int32 samples into dst as little-endian
// signed PCM at the given bit depth.
func writeSamples(dst []byte, samples []C.int32_t, depth qua.BitDepth) {
	pos := 0

	switch depth {
	case qua.Depth8:
		for _, s := range samples {
			dst[pos] = byte(int8(s))
			pos++
		}
	case qua.Depth16:
		for _, s := range samples {
			binary.LittleEndian.PutUint16(dst[pos:], uint16(int16(s)))
			pos += 2
		}
	case qua.Depth20, qua.Depth24:
		for _, s := range samples {
			v := int32(s)
			dst[pos] = byte(v)
			dst[pos+1] = byte(v >> 8)
			dst[pos+2] = byte(v >> 16)
			pos += 3
		}
	case qua.Depth32:
		for _, s := range samples {
			binary.LittleEndian.PutUint32(dst[pos:], uint32(s))
			pos += 4
		}
	}
}

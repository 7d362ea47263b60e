// Package streamer implements the real-time PCM streamer: it reads a
// stereo WAV file into a huge-page-backed source buffer and streams it to
// the sound card through ALSA's memory-mapped ring buffer using
// non-temporal block copies, single-threaded, on the hot path.
package streamer

// #cgo pkg-config: alsa
// #include <stdlib.h>
// #include <alsa/asoundlib.h>
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// SampleFormat is one of the two formats the streamer ever negotiates —
// there is no runtime format negotiation beyond this fixed choice.
type SampleFormat int

const (
	FormatS16LE SampleFormat = iota
	FormatS32LE
)

func (f SampleFormat) alsaFormat() C.snd_pcm_format_t {
	if f == FormatS16LE {
		return C.SND_PCM_FORMAT_S16_LE
	}

	return C.SND_PCM_FORMAT_S32_LE
}

// BytesPerSample returns the packed sample width for f.
func (f SampleFormat) BytesPerSample() int {
	if f == FormatS16LE {
		return 2
	}

	return 4
}

var (
	errDeviceOpen   = errors.New("streamer: opening device")
	errHWParams     = errors.New("streamer: negotiating hardware parameters")
	errPrepare      = errors.New("streamer: preparing device")
	errStart        = errors.New("streamer: starting device")
	errMmapBegin    = errors.New("streamer: mmap begin")
	errMmapCommit   = errors.New("streamer: mmap commit")
	errPartialMap   = errors.New("streamer: device did not yield the full requested area contiguously")
	errWait         = errors.New("streamer: waiting for writable space")
	errXrunRecovery = errors.New("streamer: xrun recovery failed")
)

// Device wraps a single opened, hw-params-negotiated ALSA PCM handle in
// exact (non-"near") mmap interleaved mode. Every method aborts rather than
// silently falling back — the streamer never negotiates.
type Device struct {
	handle *C.snd_pcm_t

	format       SampleFormat
	channels     int
	rate         int
	bufferFrames int
	periodFrames int
}

// Open opens devName for playback in blocking mode and negotiates the
// exact hardware parameters the spec fixes at compile time: mmap
// interleaved access, the given sample format, exact rate, 2 channels,
// exact buffer/period size in frames. Any parameter ALSA cannot satisfy
// exactly is a hard error — "near" negotiation is never attempted.
func Open(devName string, format SampleFormat, rate, bufferFrames, periodFrames int) (*Device, error) {
	cName := C.CString(devName)
	defer C.free(unsafe.Pointer(cName))

	var handle *C.snd_pcm_t

	if rc := C.snd_pcm_open(&handle, cName, C.SND_PCM_STREAM_PLAYBACK, 0); rc < 0 {
		return nil, alsaErr(errDeviceOpen, rc)
	}

	d := &Device{
		handle:       handle,
		format:       format,
		channels:     2,
		rate:         rate,
		bufferFrames: bufferFrames,
		periodFrames: periodFrames,
	}

	if err := d.negotiate(); err != nil {
		C.snd_pcm_close(handle)

		return nil, err
	}

	if rc := C.snd_pcm_prepare(handle); rc < 0 {
		C.snd_pcm_close(handle)

		return nil, alsaErr(errPrepare, rc)
	}

	return d, nil
}

func (d *Device) negotiate() error {
	var hwParams *C.snd_pcm_hw_params_t

	if rc := C.snd_pcm_hw_params_malloc(&hwParams); rc < 0 {
		return alsaErr(errHWParams, rc)
	}
	defer C.snd_pcm_hw_params_free(hwParams)

	if rc := C.snd_pcm_hw_params_any(d.handle, hwParams); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	if rc := C.snd_pcm_hw_params_set_access(d.handle, hwParams, C.SND_PCM_ACCESS_MMAP_INTERLEAVED); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	if rc := C.snd_pcm_hw_params_set_format(d.handle, hwParams, d.format.alsaFormat()); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	exactRate := C.uint(d.rate) //nolint:gosec // sample rates are small positive ints.
	if rc := C.snd_pcm_hw_params_set_rate(d.handle, hwParams, exactRate, 0); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	if rc := C.snd_pcm_hw_params_set_channels(d.handle, hwParams, C.uint(d.channels)); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	bufSize := C.snd_pcm_uframes_t(d.bufferFrames) //nolint:gosec // buffer sizes are fixed small constants.
	if rc := C.snd_pcm_hw_params_set_buffer_size(d.handle, hwParams, bufSize); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	perSize := C.snd_pcm_uframes_t(d.periodFrames) //nolint:gosec // period sizes are fixed small constants.
	if rc := C.snd_pcm_hw_params_set_period_size(d.handle, hwParams, perSize, 0); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	if rc := C.snd_pcm_hw_params(d.handle, hwParams); rc < 0 {
		return alsaErr(errHWParams, rc)
	}

	return nil
}

// Start marks the device started; called after the two-period prefill has
// been committed.
func (d *Device) Start() error {
	if rc := C.snd_pcm_start(d.handle); rc < 0 {
		return alsaErr(errStart, rc)
	}

	return nil
}

// Wait blocks until the device reports writable space, with no timeout and
// no polling — a single level-triggered wait call.
func (d *Device) Wait() error {
	rc := C.snd_pcm_wait(d.handle, -1)
	if rc < 0 {
		return alsaErr(errWait, C.int(rc))
	}

	return nil
}

// MmapArea is one contiguous mapped destination region, viewed as raw
// bytes ready for a non-temporal copy. Offset is the appl_ptr-relative
// frame offset ALSA reported for this mapping, and must be threaded back
// into the matching Commit call unchanged — with a 2-period buffer it
// alternates between 0 and periodFrames on every other call.
type MmapArea struct {
	Bytes  []byte
	offset C.snd_pcm_uframes_t
}

// MmapPeriods requests mapping coordinates for nPeriods full periods in a
// single call. ALSA must yield them contiguously; anything less is a hard
// error (the streamer never retries with a smaller request).
func (d *Device) MmapPeriods(nPeriods int) (MmapArea, error) {
	frames := C.snd_pcm_uframes_t(d.periodFrames * nPeriods) //nolint:gosec // bounded by compile-time period/buffer sizes.

	var areas *C.snd_pcm_channel_area_t

	var offset C.snd_pcm_uframes_t

	requested := frames

	rc := C.snd_pcm_mmap_begin(d.handle, &areas, &offset, &frames)
	if rc < 0 {
		return MmapArea{}, alsaErr(errMmapBegin, rc)
	}

	if frames < requested {
		C.snd_pcm_mmap_commit(d.handle, offset, 0)

		return MmapArea{}, errPartialMap
	}

	bytesPerFrame := d.format.BytesPerSample() * d.channels
	base := unsafe.Pointer(areas.addr)
	byteOffset := uintptr(offset) * uintptr(bytesPerFrame)
	length := int(frames) * bytesPerFrame

	ptr := unsafe.Add(base, byteOffset)
	buf := unsafe.Slice((*byte)(ptr), length)

	return MmapArea{Bytes: buf, offset: offset}, nil
}

// Commit advances the application-side write index by nFrames starting at
// area's reported offset, and notifies the driver. The offset must be the
// one MmapArea returned for this exact mapping — passing a stale or
// constant offset violates ALSA's mmap_commit contract and can return
// -EPIPE on the very next period.
func (d *Device) Commit(area MmapArea, nFrames int) error {
	committed := C.snd_pcm_mmap_commit(d.handle, area.offset, C.snd_pcm_uframes_t(nFrames)) //nolint:gosec // bounded by period size.
	if committed < 0 {
		return alsaErr(errMmapCommit, C.int(committed))
	}

	if int(committed) != nFrames {
		return errMmapCommit
	}

	return nil
}

// Recover attempts one xrun (underrun) recovery: prepare then start again.
// This is the single best-effort retry the spec allows for a mid-stream
// underrun; a second failure is fatal.
func (d *Device) Recover() error {
	if rc := C.snd_pcm_prepare(d.handle); rc < 0 {
		return alsaErr(errXrunRecovery, rc)
	}

	return d.Start()
}

// Drain blocks until all pending frames have been played out, then closes
// the device.
func (d *Device) Drain() error {
	C.snd_pcm_drain(d.handle)
	C.snd_pcm_close(d.handle)

	return nil
}

// Close releases the device handle without waiting for pending frames to
// play — used on the abort paths.
func (d *Device) Close() {
	C.snd_pcm_close(d.handle)
}

func alsaErr(sentinel error, rc C.int) error {
	return fmt.Errorf("%w: %s", sentinel, C.GoString(C.snd_strerror(rc)))
}

package streamer

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"codeberg.org/go-mmap/mmap"
	"golang.org/x/sys/unix"

	"github.com/br4qua/qua-play"
)

// mmapAlignment is the 4 KiB page alignment §4.1 requires of every
// destination mapping the non-temporal copy writes into.
const mmapAlignment = 4096

var errMisalignedMapping = errors.New("streamer: destination mapping is not 4 KiB aligned")

func checkAlignment(area MmapArea) error {
	if len(area.Bytes) == 0 {
		return nil
	}

	if uintptr(unsafe.Pointer(&area.Bytes[0]))%mmapAlignment != 0 { //nolint:gosec // pointer-to-uintptr alignment check only, not retained.
		return qua.Wrap(qua.KindResource, errMisalignedMapping)
	}

	return nil
}

// baseBufferBytes is the compile-time base total buffer size; see
// BufferSize for the halving/doubling rules applied on top of it.
const baseBufferBytes = 524288

// highSampleRateThreshold is the sample rate at or above which the buffer
// doubles.
const highSampleRateThreshold = 88000

var (
	ErrHugePageUnavailable = errors.New("streamer: huge-page-backed allocation unavailable")
	ErrDeviceRefused       = errors.New("streamer: device refused requested parameters")
)

// BufferSize returns the total buffer size and period size, in bytes, for
// the given target format — fixed at compile time as a function of bit
// depth and sample rate, never negotiated at runtime.
func BufferSize(format SampleFormat, sampleRate int) (bufferBytes, periodBytes int) {
	buf := baseBufferBytes

	if format == FormatS16LE {
		buf /= 2
	}

	if sampleRate >= highSampleRateThreshold {
		buf *= 2
	}

	return buf, buf / 2
}

// Play streams wavPath to devName start-to-finish: opens the device,
// negotiates exact hardware parameters, reads the WAV header, allocates a
// huge-page-backed source buffer, prefills two periods, runs the
// steady-state wait/copy/notify loop, then drains. Any setup failure
// aborts before audio begins; mid-stream, only a failed mmap begin gets a
// recovery attempt (see waitAndCopyPeriod).
func Play(wavPath, devName string) error {
	f, err := os.Open(wavPath) //nolint:gosec // wavPath is the orchestrator-resolved cache entry.
	if err != nil {
		return qua.Wrap(qua.KindPrecondition, fmt.Errorf("opening %s: %w", wavPath, err))
	}

	header, err := ReadHeader(f)
	f.Close()

	if err != nil {
		return qua.Wrap(qua.KindFormat, err)
	}

	format := sampleFormatOf(header.Format.BitDepth)
	bufferBytes, periodBytes := BufferSize(format, header.Format.SampleRate)
	bytesPerFrame := format.BytesPerSample() * 2
	bufferFrames := bufferBytes / bytesPerFrame
	periodFrames := periodBytes / bytesPerFrame

	dev, err := Open(devName, format, header.Format.SampleRate, bufferFrames, periodFrames)
	if err != nil {
		return qua.Wrap(qua.KindDevice, err)
	}

	src, err := loadSourceBuffer(wavPath, header, periodBytes)
	if err != nil {
		dev.Close()

		return qua.Wrap(qua.KindResource, err)
	}
	defer src.Close()

	if err := runLoop(dev, src, periodBytes); err != nil {
		dev.Close()

		return qua.Wrap(qua.KindDevice, err)
	}

	return nil
}

func sampleFormatOf(depth qua.BitDepth) SampleFormat {
	if depth == qua.Depth16 {
		return FormatS16LE
	}

	return FormatS32LE
}

// sourceBuffer is the huge-page-backed, read-only, zero-padded region
// holding the entire data chunk plus one trailing period of silence.
type sourceBuffer struct {
	mem []byte
}

// loadSourceBuffer reads the data chunk from wavPath (at the offset
// ReadHeader located) into an anonymous huge-page mmap region, zero-padded
// to a whole number of periods plus one extra trailing period so the final
// partial period drains cleanly. The source file itself is read through a
// page-cache-backed mmap rather than a syscall read loop, since the whole
// data chunk is touched exactly once and in order.
func loadSourceBuffer(wavPath string, header Header, periodBytes int) (*sourceBuffer, error) {
	dataBytes := int(header.DataBytes)

	periods := (dataBytes + periodBytes - 1) / periodBytes
	totalBytes := (periods+1)*periodBytes

	mem, err := unix.Mmap(
		-1, 0, totalBytes,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB|unix.MAP_POPULATE,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHugePageUnavailable, err)
	}

	src, err := mmap.Open(wavPath)
	if err != nil {
		_ = unix.Munmap(mem)

		return nil, fmt.Errorf("streamer: mapping %s: %w", wavPath, err)
	}

	_, readErr := src.ReadAt(mem[:dataBytes], int64(header.DataOffset))
	src.Close()

	if readErr != nil {
		_ = unix.Munmap(mem)

		return nil, fmt.Errorf("streamer: reading data chunk: %w", readErr)
	}

	// Remainder of mem is already zero from MAP_ANONYMOUS.

	if err := unix.Mprotect(mem, unix.PROT_READ); err != nil {
		_ = unix.Munmap(mem)

		return nil, fmt.Errorf("streamer: marking source buffer read-only: %w", err)
	}

	return &sourceBuffer{mem: mem}, nil
}

func (s *sourceBuffer) Close() {
	_ = unix.Munmap(s.mem)
}

// runLoop performs the startup prefill and the steady-state copy loop.
func runLoop(dev *Device, src *sourceBuffer, periodBytes int) error {
	area, err := dev.MmapPeriods(2)
	if err != nil {
		return err
	}

	if err := checkAlignment(area); err != nil {
		return err
	}

	slot0 := area.Bytes[:periodBytes]
	slot1 := area.Bytes[periodBytes : 2*periodBytes]

	cursor := 0
	cursor = copyPeriod(slot0, src.mem, cursor, periodBytes)
	cursor = copyPeriod(slot1, src.mem, cursor, periodBytes)

	storeFence()

	if err := dev.Commit(area, 2*periodFramesOf(periodBytes, dev)); err != nil {
		return err
	}

	if err := dev.Start(); err != nil {
		return err
	}

	total := len(src.mem)

	for cursor < total {
		if err := waitAndCopyPeriod(dev, src.mem, &cursor, periodBytes); err != nil {
			return err
		}
	}

	return dev.Drain()
}

func copyPeriod(dst, src []byte, cursor, periodBytes int) int {
	copyBlock(dst, src[cursor:cursor+periodBytes])

	return cursor + periodBytes
}

// waitAndCopyPeriod blocks for writable space, copies one period, and
// notifies the driver. A failed mmap begin triggers one Recover (prepare
// and start) followed by one more mmap begin; a second failure is fatal.
// A failed wait or commit is returned as is, without a recovery attempt.
func waitAndCopyPeriod(dev *Device, src []byte, cursor *int, periodBytes int) error {
	if err := dev.Wait(); err != nil {
		return err
	}

	area, err := dev.MmapPeriods(1)
	if err != nil {
		if recoverErr := dev.Recover(); recoverErr != nil {
			return fmt.Errorf("%w (recovery also failed: %w)", err, recoverErr)
		}

		area, err = dev.MmapPeriods(1)
		if err != nil {
			return err
		}
	}

	if err := checkAlignment(area); err != nil {
		return err
	}

	copyBlock(area.Bytes, src[*cursor:*cursor+periodBytes])

	if err := dev.Commit(area, periodFramesOf(periodBytes, dev)); err != nil {
		return err
	}

	*cursor += periodBytes

	return nil
}

func periodFramesOf(periodBytes int, dev *Device) int {
	return periodBytes / (dev.format.BytesPerSample() * dev.channels)
}

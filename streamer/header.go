package streamer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/br4qua/qua-play"
)

var (
	ErrNotWAV        = errors.New("streamer: not a RIFF/WAVE file")
	ErrNoFmtChunk    = errors.New("streamer: missing fmt chunk")
	ErrNoDataChunk   = errors.New("streamer: missing data chunk")
	ErrUnsupportedFmt = errors.New("streamer: unsupported WAV format")
)

// Header is the subset of a WAV file's fmt chunk the streamer needs, plus
// the byte offset and length of the data chunk so the rest of the file can
// be read sequentially rather than buffered through a generic decoder.
type Header struct {
	Format     qua.PCMFormat
	DataOffset int64
	DataBytes  int64
}

// ReadHeader walks r's RIFF chunks, validating the fmt chunk carries audio
// format 1 (PCM) or 65534 (extensible) and rejecting anything else,
// returning the offset of the first data byte. It never buffers the data
// chunk itself — the streamer reads that sequentially into its own
// huge-page source buffer.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return h, fmt.Errorf("reading RIFF header: %w", err)
	}

	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return h, ErrNotWAV
	}

	pos := int64(12)
	fmtFound := false

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return h, fmt.Errorf("reading chunk header: %w", err)
		}

		pos += 8
		chunkID := string(chunkHeader[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))

		switch chunkID {
		case "fmt ":
			if err := readFmtChunk(r, chunkSize, &h.Format); err != nil {
				return h, err
			}

			fmtFound = true
			pos += chunkSize

		case "data":
			h.DataOffset = pos
			h.DataBytes = chunkSize

			return h, validateHeader(h, fmtFound)

		default:
			if _, err := io.CopyN(io.Discard, r, chunkSize); err != nil {
				return h, fmt.Errorf("skipping chunk %s: %w", chunkID, err)
			}

			pos += chunkSize
		}

		if chunkSize%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				return h, fmt.Errorf("seeking past pad byte: %w", err)
			}

			pos++
		}
	}

	return h, ErrNoDataChunk
}

func validateHeader(h Header, fmtFound bool) error {
	if !fmtFound {
		return ErrNoFmtChunk
	}

	if h.Format.Channels != 2 {
		return fmt.Errorf("%w: channels=%d (streamer requires exactly 2)", ErrUnsupportedFmt, h.Format.Channels)
	}

	return nil
}

func readFmtChunk(r io.Reader, size int64, format *qua.PCMFormat) error {
	if size < 16 {
		return ErrUnsupportedFmt
	}

	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fmt.Errorf("reading fmt chunk: %w", err)
	}

	if size > 16 {
		if _, err := io.CopyN(io.Discard, r, size-16); err != nil {
			return fmt.Errorf("skipping fmt chunk tail: %w", err)
		}
	}

	audioFormat := binary.LittleEndian.Uint16(buf[0:2])
	if audioFormat != 1 && audioFormat != 0xFFFE {
		return fmt.Errorf("%w: audio format %d", ErrUnsupportedFmt, audioFormat)
	}

	channels := binary.LittleEndian.Uint16(buf[2:4])
	sampleRate := binary.LittleEndian.Uint32(buf[4:8])
	bitsPerSample := binary.LittleEndian.Uint16(buf[14:16])

	depth, err := qua.ToBitDepth(uint8(bitsPerSample)) //nolint:gosec // streamer only ever sees 16 or 32.
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedFmt, err)
	}

	if depth != qua.Depth16 && depth != qua.Depth32 {
		return fmt.Errorf("%w: bit depth %d (streamer accepts only 16 or 32)", ErrUnsupportedFmt, depth)
	}

	format.Channels = uint(channels)
	format.SampleRate = int(sampleRate)
	format.BitDepth = depth

	return nil
}

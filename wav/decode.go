// Package wav decodes and encodes RIFF/WAVE PCM audio. Decode handles both
// the classic WAVEFORMATEX header and WAVEFORMATEXTENSIBLE; EncodeClassic is
// what the post-processing step writes cache entries with, since by then
// every entry is exactly 2 channels and gets the 44-byte canonical header.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/br4qua/qua-play"
)

// WAV format constants.
const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE
)

// GUID for PCM in WAVEFORMATEXTENSIBLE.
var wavGUIDPCM = [16]byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
}

var (
	ErrNotWAV          = errors.New("not a WAV file")
	ErrUnsupportedFmt  = errors.New("unsupported WAV format")
	ErrNoFmtChunk      = errors.New("missing fmt chunk")
	ErrNoDataChunk     = errors.New("missing data chunk")
	ErrInvalidBitDepth = errors.New("invalid bit depth")
)

// Decode reads a WAV file and returns raw PCM samples.
func Decode(rs io.ReadSeeker) ([]byte, qua.PCMFormat, error) {
	var format qua.PCMFormat

	var riffHeader [12]byte
	if _, err := io.ReadFull(rs, riffHeader[:]); err != nil {
		return nil, format, fmt.Errorf("reading RIFF header: %w", err)
	}

	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, format, ErrNotWAV
	}

	var pcmData []byte

	fmtFound := false

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(rs, chunkHeader[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, format, fmt.Errorf("reading chunk header: %w", err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			if err := parseFmtChunk(rs, chunkSize, &format); err != nil {
				return nil, format, err
			}

			fmtFound = true

		case "data":
			pcmData = make([]byte, chunkSize)
			if _, err := io.ReadFull(rs, pcmData); err != nil {
				return nil, format, fmt.Errorf("reading PCM data: %w", err)
			}

		default:
			// Skip unknown chunks (LIST, id3, fact, etc.)
			if _, err := rs.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, format, fmt.Errorf("skipping chunk %s: %w", chunkID, err)
			}
		}

		// Chunks are word-aligned (pad byte if odd size).
		if chunkSize%2 == 1 {
			if _, err := rs.Seek(1, io.SeekCurrent); err != nil {
				return nil, format, fmt.Errorf("seeking past pad byte: %w", err)
			}
		}
	}

	if !fmtFound {
		return nil, format, ErrNoFmtChunk
	}

	if pcmData == nil {
		return nil, format, ErrNoDataChunk
	}

	return pcmData, format, nil
}

// ReadFormat walks just far enough into a WAV stream to read the fmt chunk,
// without reading the (potentially large) data chunk into memory. Used to
// recover the format an external converter produced, after it has already
// exited, without paying for a full Decode.
func ReadFormat(rs io.ReadSeeker) (qua.PCMFormat, error) {
	var format qua.PCMFormat

	var riffHeader [12]byte
	if _, err := io.ReadFull(rs, riffHeader[:]); err != nil {
		return format, fmt.Errorf("reading RIFF header: %w", err)
	}

	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return format, ErrNotWAV
	}

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(rs, chunkHeader[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return format, ErrNoFmtChunk
			}

			return format, fmt.Errorf("reading chunk header: %w", err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		if chunkID == "fmt " {
			return format, parseFmtChunk(rs, chunkSize, &format)
		}

		if _, err := rs.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
			return format, fmt.Errorf("skipping chunk %s: %w", chunkID, err)
		}

		if chunkSize%2 == 1 {
			if _, err := rs.Seek(1, io.SeekCurrent); err != nil {
				return format, fmt.Errorf("seeking past pad byte: %w", err)
			}
		}
	}
}

func parseFmtChunk(rs io.ReadSeeker, size uint32, format *qua.PCMFormat) error {
	if size < 16 {
		return ErrUnsupportedFmt
	}

	var buf [40]byte // Max size for WAVEFORMATEXTENSIBLE

	toRead := min(size, 40)

	if _, err := io.ReadFull(rs, buf[:toRead]); err != nil {
		return fmt.Errorf("reading fmt chunk: %w", err)
	}

	if size > 40 {
		if _, err := rs.Seek(int64(size-40), io.SeekCurrent); err != nil {
			return fmt.Errorf("skipping fmt chunk tail: %w", err)
		}
	}

	audioFormat := binary.LittleEndian.Uint16(buf[0:2])
	channels := binary.LittleEndian.Uint16(buf[2:4])
	sampleRate := binary.LittleEndian.Uint32(buf[4:8])
	bitsPerSample := binary.LittleEndian.Uint16(buf[14:16])

	switch audioFormat {
	case wavFormatPCM:
		// Standard PCM, we're good.

	case wavFormatExtensible:
		if size < 40 {
			return ErrUnsupportedFmt
		}

		var subFormat [16]byte
		copy(subFormat[:], buf[24:40])

		if subFormat != wavGUIDPCM {
			return ErrUnsupportedFmt // Not PCM (could be float, etc.)
		}

	case wavFormatIEEEFloat:
		return ErrUnsupportedFmt

	default:
		return ErrUnsupportedFmt
	}

	format.SampleRate = int(sampleRate)
	format.Channels = uint(channels)

	depth, err := qua.ToBitDepth(uint8(bitsPerSample)) //nolint:gosec // WAV bit depths never exceed uint8 range.
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBitDepth, err)
	}

	format.BitDepth = depth

	return nil
}

// Encode writes PCM samples as a WAV file, choosing the extensible header
// for >2 channels or >16-bit depth and the classic header otherwise.
func Encode(w io.Writer, pcm []byte, format qua.PCMFormat) error {
	channels := uint16(format.Channels)
	sampleRate := uint32(format.SampleRate)
	bitsPerSample := uint16(format.BitDepth)
	byteRate := sampleRate * uint32(channels) * uint32(bitsPerSample) / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(len(pcm))

	if channels > 2 || bitsPerSample > 16 {
		return writeWAVExtensible(w, pcm, channels, sampleRate, bitsPerSample, byteRate, blockAlign, dataSize)
	}

	return writeWAVSimple(w, pcm, channels, sampleRate, bitsPerSample, byteRate, blockAlign, dataSize)
}

// EncodeClassic always writes the classic 44-byte WAVEFORMATEX header,
// regardless of bit depth. This is what post-processing calls when it
// rewrites a cache entry: every entry is exactly 2 channels by then. The
// streamer's header reader walks the chunks, so it accepts this header and
// the extensible one alike.
func EncodeClassic(w io.Writer, pcm []byte, format qua.TargetPolicy) error {
	const channels = 2

	sampleRate := uint32(format.SampleRate)
	bitsPerSample := uint16(format.BitDepth)
	byteRate := sampleRate * channels * uint32(bitsPerSample) / 8
	blockAlign := uint16(channels * bitsPerSample / 8)
	dataSize := uint32(len(pcm))

	return writeWAVSimple(w, pcm, channels, sampleRate, bitsPerSample, byteRate, blockAlign, dataSize)
}

func writeWAVSimple(
	w io.Writer,
	pcm []byte,
	channels uint16,
	sampleRate uint32,
	bitsPerSample uint16,
	byteRate uint32,
	blockAlign uint16,
	dataSize uint32,
) error {
	var header [44]byte

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], dataSize+36)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing WAV header: %w", err)
	}

	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("writing PCM data: %w", err)
	}

	return nil
}

func writeWAVExtensible(
	w io.Writer,
	pcm []byte,
	channels uint16,
	sampleRate uint32,
	bitsPerSample uint16,
	byteRate uint32,
	blockAlign uint16,
	dataSize uint32,
) error {
	fmtChunkSize := uint32(40)
	headerSize := 12 + 8 + fmtChunkSize + 8
	fileSize := headerSize + dataSize - 8

	var header [68]byte

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], fileSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], fmtChunkSize)

	binary.LittleEndian.PutUint16(header[20:22], wavFormatExtensible)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	binary.LittleEndian.PutUint16(header[36:38], 22) // cbSize

	binary.LittleEndian.PutUint16(header[38:40], bitsPerSample) // validBitsPerSample
	binary.LittleEndian.PutUint32(header[40:44], channelMask(channels))
	copy(header[44:60], wavGUIDPCM[:])

	copy(header[60:64], "data")
	binary.LittleEndian.PutUint32(header[64:68], dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing WAV header: %w", err)
	}

	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("writing PCM data: %w", err)
	}

	return nil
}

// channelMask returns the standard channel mask for common configurations.
func channelMask(channels uint16) uint32 {
	switch channels {
	case 1:
		return 0x4 // FC
	case 2:
		return 0x3 // FL | FR
	case 4:
		return 0x33 // FL | FR | BL | BR
	case 6:
		return 0x3F // FL | FR | FC | LFE | BL | BR (5.1)
	case 8:
		return 0x63F // 7.1
	default:
		return 0 // Unspecified
	}
}

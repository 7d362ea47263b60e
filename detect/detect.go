// Package detect dispatches on a track's file extension — the sole format
// discriminator this player recognizes. It deliberately does not sniff file
// contents: a mislabeled extension is treated as that extension, not as
// whatever the bytes happen to look like.
package detect

import "strings"

// Codec identifies a recognized audio codec.
type Codec uint8

const (
	// Unknown indicates the extension was not recognized.
	Unknown Codec = iota
	// FLAC is the Free Lossless Audio Codec, decoded in-process.
	FLAC
	// WavPack is decoded in-process via libwavpack.
	WavPack
	// WAV is RIFF WAVE PCM, decoded in-process (no conversion needed).
	WAV
	// MP3, M4A, Opus, Ogg, APE, and AIFF are decoded by an external converter.
	MP3
	M4A
	Opus
	Ogg
	APE
	AIFF
)

// String returns the human-readable name of the codec.
func (c Codec) String() string {
	switch c {
	case FLAC:
		return "FLAC"
	case WavPack:
		return "WavPack"
	case WAV:
		return "WAV"
	case MP3:
		return "MP3"
	case M4A:
		return "M4A"
	case Opus:
		return "Opus"
	case Ogg:
		return "Ogg"
	case APE:
		return "APE"
	case AIFF:
		return "AIFF"
	default:
		return "unknown"
	}
}

// Native reports whether the codec is decoded in-process, as opposed to by
// spawning an external converter.
func (c Codec) Native() bool {
	return c == FLAC || c == WavPack || c == WAV
}

// ByExtension returns the codec recognized for path's extension and whether
// it was recognized at all. Dispatch is by the extension's first character
// then a full match; Recognized wraps it as the predicate the navigator
// filters directory entries by.
func ByExtension(path string) (Codec, bool) {
	ext := extensionOf(path)
	if ext == "" {
		return Unknown, false
	}

	switch ext[0] {
	case 'a':
		switch ext {
		case "ape":
			return APE, true
		case "aiff", "aif":
			return AIFF, true
		}
	case 'f':
		if ext == "flac" {
			return FLAC, true
		}
	case 'm':
		switch ext {
		case "mp3":
			return MP3, true
		case "m4a":
			return M4A, true
		}
	case 'o':
		switch ext {
		case "opus":
			return Opus, true
		case "ogg":
			return Ogg, true
		}
	case 'w':
		switch ext {
		case "wv":
			return WavPack, true
		case "wav":
			return WAV, true
		}
	}

	return Unknown, false
}

// Recognized reports whether path has a recognized audio extension, the
// predicate the navigator and directory scans filter directory entries by.
func Recognized(name string) bool {
	_, ok := ByExtension(name)

	return ok
}

// extensionOf returns the lowercased extension (without the leading dot),
// or "" if name has none or the dot is the first/last character.
func extensionOf(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return ""
	}

	return strings.ToLower(name[dot+1:])
}

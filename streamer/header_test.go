package streamer_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/streamer"
	"github.com/br4qua/qua-play/wav"
)

func TestReadHeader_ClassicWAV(t *testing.T) {
	format := qua.PCMFormat{SampleRate: 44100, BitDepth: qua.Depth16, Channels: 2}
	pcm := make([]byte, 256)

	var buf bytes.Buffer
	require.NoError(t, wav.Encode(&buf, pcm, format))

	h, err := streamer.ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, format, h.Format)
	assert.Equal(t, int64(44), h.DataOffset)
	assert.Equal(t, int64(len(pcm)), h.DataBytes)
}

func TestReadHeader_ExtensibleWAV(t *testing.T) {
	format := qua.PCMFormat{SampleRate: 192000, BitDepth: qua.Depth32, Channels: 2}
	pcm := make([]byte, 512)

	var buf bytes.Buffer
	require.NoError(t, wav.Encode(&buf, pcm, format))

	h, err := streamer.ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, format, h.Format)
	assert.Equal(t, int64(len(pcm)), h.DataBytes)
}

func TestReadHeader_RejectsNonStereo(t *testing.T) {
	format := qua.PCMFormat{SampleRate: 48000, BitDepth: qua.Depth16, Channels: 6}
	pcm := make([]byte, 96)

	var buf bytes.Buffer
	require.NoError(t, wav.Encode(&buf, pcm, format))

	_, err := streamer.ReadHeader(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, streamer.ErrUnsupportedFmt)
}

func TestReadHeader_RejectsNonWAV(t *testing.T) {
	_, err := streamer.ReadHeader(bytes.NewReader([]byte("not a wav at all............")))
	assert.ErrorIs(t, err, streamer.ErrNotWAV)
}

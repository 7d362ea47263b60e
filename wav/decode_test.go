package wav_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/wav"
)

func pcmOf(n int) []byte {
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i)
	}

	return pcm
}

func TestEncodeDecode_ClassicHeaderRoundTrip(t *testing.T) {
	format := qua.PCMFormat{SampleRate: 44100, BitDepth: qua.Depth16, Channels: 2}
	pcm := pcmOf(4096)

	var buf bytes.Buffer
	require.NoError(t, wav.Encode(&buf, pcm, format))

	decoded, gotFormat, err := wav.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, pcm, decoded)
	assert.Equal(t, format, gotFormat)
}

func TestEncodeDecode_ExtensibleHeaderRoundTrip(t *testing.T) {
	format := qua.PCMFormat{SampleRate: 96000, BitDepth: qua.Depth32, Channels: 2}
	pcm := pcmOf(8192)

	var buf bytes.Buffer
	require.NoError(t, wav.Encode(&buf, pcm, format))

	decoded, gotFormat, err := wav.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, pcm, decoded)
	assert.Equal(t, format, gotFormat)
}

func TestEncode_MultichannelForcesExtensible(t *testing.T) {
	format := qua.PCMFormat{SampleRate: 48000, BitDepth: qua.Depth16, Channels: 6}
	pcm := pcmOf(1024)

	var buf bytes.Buffer
	require.NoError(t, wav.Encode(&buf, pcm, format))

	// Simple header is always 44 bytes; extensible headers are larger.
	assert.Greater(t, buf.Len(), 44+len(pcm))
}

func TestEncodeClassic_Always44ByteHeader(t *testing.T) {
	policy := qua.TargetPolicy{SampleRate: 192000, BitDepth: qua.TargetDepth32}
	pcm := pcmOf(2048)

	var buf bytes.Buffer
	require.NoError(t, wav.EncodeClassic(&buf, pcm, policy))

	assert.Equal(t, 44+len(pcm), buf.Len())
	assert.Equal(t, "RIFF", string(buf.Bytes()[0:4]))
	assert.Equal(t, "data", string(buf.Bytes()[36:40]))

	decoded, format, err := wav.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, pcm, decoded)
	assert.Equal(t, qua.Depth32, format.BitDepth)
	assert.Equal(t, uint(2), format.Channels)
}

func TestDecode_RejectsNonWAV(t *testing.T) {
	_, _, err := wav.Decode(bytes.NewReader([]byte("not a wav file at all.........")))
	assert.ErrorIs(t, err, wav.ErrNotWAV)
}

func TestReadFormat_ReadsHeaderWithoutFullDecode(t *testing.T) {
	format := qua.PCMFormat{SampleRate: 44100, BitDepth: qua.Depth16, Channels: 2}
	pcm := pcmOf(512)

	var buf bytes.Buffer
	require.NoError(t, wav.Encode(&buf, pcm, format))

	got, err := wav.ReadFormat(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, format, got)
}

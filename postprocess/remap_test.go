package postprocess_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/postprocess"
)

func TestRemap_StereoPassthrough(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	format := qua.PCMFormat{Channels: 2, BitDepth: qua.Depth16}

	got, err := postprocess.Remap(pcm, format)
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestRemap_MonoDuplicatedToStereo(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0x02, 0x00} // two 16-bit mono samples: 1, 2
	format := qua.PCMFormat{Channels: 1, BitDepth: qua.Depth16}

	got, err := postprocess.Remap(pcm, format)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x01, 0x00, 0x02, 0x00, 0x02, 0x00}, got)
}

func TestRemap_FiveOneDownmixToStereo(t *testing.T) {
	// One 5.1 frame of 16-bit silence except FL=FR=1000.
	frame := make([]byte, 12)
	frame[0], frame[1] = 0xE8, 0x03 // FL = 1000
	frame[2], frame[3] = 0xE8, 0x03 // FR = 1000

	format := qua.PCMFormat{Channels: 6, BitDepth: qua.Depth16}

	got, err := postprocess.Remap(frame, format)
	require.NoError(t, err)
	require.Len(t, got, 4)

	left := int16(got[0]) | int16(got[1])<<8
	right := int16(got[2]) | int16(got[3])<<8
	assert.Equal(t, int16(1000), left)
	assert.Equal(t, int16(1000), right)
}

func TestRemap_UnsupportedChannelCount(t *testing.T) {
	format := qua.PCMFormat{Channels: 4, BitDepth: qua.Depth16}

	_, err := postprocess.Remap([]byte{1, 2, 3, 4, 5, 6, 7, 8}, format)
	assert.Error(t, err)
}

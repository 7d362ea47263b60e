package postprocess_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/br4qua/qua-play"
	"github.com/br4qua/qua-play/postprocess"
)

func TestRequantize_SameDepthIsNoop(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}

	got := postprocess.Requantize(pcm, qua.Depth16, qua.Depth16)
	assert.Equal(t, pcm, got)
}

func TestRequantize_24To32ZeroPadsLSB(t *testing.T) {
	// One 24-bit sample, little-endian: 0x010203.
	pcm := []byte{0x03, 0x02, 0x01}

	got := postprocess.Requantize(pcm, qua.Depth24, qua.Depth32)
	assert.Equal(t, []byte{0x00, 0x03, 0x02, 0x01}, got)
}

func TestRequantize_16To32Generic(t *testing.T) {
	// A 16-bit sample of value 1 becomes 1<<16 once the two new low-order
	// bytes are zero-padded.
	pcm := []byte{0x01, 0x00}

	got := postprocess.Requantize(pcm, qua.Depth16, qua.Depth32)
	assert.Len(t, got, 4)

	v := int32(got[0]) | int32(got[1])<<8 | int32(got[2])<<16 | int32(got[3])<<24
	assert.Equal(t, int32(1<<16), v)
}

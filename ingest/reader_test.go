package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avlgateway/codec"
)

func TestReader_ByteChunkingInvariance(t *testing.T) {
	login := codec.EncodeLogin("356307042441013")
	data := codec.EncodeAVL(&codec.AVLFrame{
		CodecID: codec.Codec8,
		Records: []codec.AVLRecord{{TimestampMS: 1, GPS: codec.GPSElement{}}},
	})
	whole := append(append([]byte{}, login...), data...)

	loggedIn := false
	expectLogin := func() bool { return !loggedIn }

	var frames []*codec.Frame
	emit := func(f *codec.Frame) error {
		frames = append(frames, f)
		if f.Login != nil {
			loggedIn = true
		}
		return nil
	}

	r := NewReader()
	for _, chunkSize := range []int{1, 2, 3, 7} {
		r = NewReader()
		loggedIn = false
		frames = nil
		for i := 0; i < len(whole); i += chunkSize {
			end := i + chunkSize
			if end > len(whole) {
				end = len(whole)
			}
			require.NoError(t, r.Feed(whole[i:end], expectLogin, emit))
		}
		require.Len(t, frames, 2, "chunk size %d", chunkSize)
		assert.NotNil(t, frames[0].Login)
		assert.NotNil(t, frames[1].AVL)
	}
}

func TestReader_BufferOverflow(t *testing.T) {
	r := NewReader()
	garbage := make([]byte, 70*1024)
	err := r.Feed(garbage, func() bool { return false }, func(*codec.Frame) error { return nil })
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestReader_FaultPropagates(t *testing.T) {
	r := NewReader()
	bad := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	err := r.Feed(bad, func() bool { return false }, func(*codec.Frame) error { return nil })
	var fe *codec.FaultError
	require.ErrorAs(t, err, &fe)
}

package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipRoundTrip(t *testing.T) {
	input := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility, repeated for compressibility")

	enc := New(ModeGzip, Params{}, nil)
	out := make([]byte, 4096)
	enc.WriteSync(FlushFinish, input, 0, len(input), out, 0, len(out))
	n := 4096 - enc.ResultBuf[0]
	compressed := append([]byte{}, out[:n]...)
	require.NotEmpty(t, compressed)

	dec := New(ModeGunzip, Params{}, nil)
	decOut := make([]byte, 4096)
	dec.WriteSync(FlushNone, compressed, 0, len(compressed), decOut, 0, len(decOut))
	decN := 4096 - dec.ResultBuf[0]
	assert.Equal(t, input, decOut[:decN])
}

func TestUnzipAutoDetectsGzipHeader(t *testing.T) {
	input := []byte("hello world, hello world, hello world")
	enc := New(ModeGzip, Params{}, nil)
	out := make([]byte, 4096)
	enc.WriteSync(FlushFinish, input, 0, len(input), out, 0, len(out))
	n := 4096 - enc.ResultBuf[0]
	compressed := out[:n]

	dec := New(ModeUnzip, Params{}, nil)
	decOut := make([]byte, 4096)
	dec.WriteSync(FlushNone, compressed, 0, len(compressed), decOut, 0, len(decOut))
	assert.Equal(t, ModeGunzip, dec.resolved)
}

func TestCloseDeferredWhileWriteInFlight(t *testing.T) {
	s := New(ModeDeflate, Params{}, nil)
	s.writeInFlight = true
	s.Close()
	assert.True(t, s.pendingClose)
	assert.False(t, s.closed)

	s.writeInFlight = false
	s.Close()
	assert.True(t, s.closed)
}

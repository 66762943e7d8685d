package phonon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func renderMono(t *testing.T, node Node, inputs [][]float32, blockSize, sampleRate int) []float32 {
	t.Helper()
	out := make([]float32, blockSize*node.Channels())
	node.Process(&RenderContext{SampleRate: sampleRate, BlockSize: blockSize}, inputs, out)
	return out
}

func constBuf(n int, v float32) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

// A DC input through a lowpass biquad should settle near the input level -
// DC is, definitionally, within the passband.
func TestBiquadLowpassPassesDC(t *testing.T) {
	const sr, bs = 48000, 2048
	f := NewBiquad("lp", BiquadLowpass, ConstRef(0), ConstRef(1000), ConstRef(0.707), ConstRef(0))
	in := constBuf(bs, 1.0)
	out := renderMono(t, f, [][]float32{in, constBuf(bs, 1000), constBuf(bs, 0.707), constBuf(bs, 0)}, bs, sr)
	assert.InDelta(t, 1.0, float64(out[bs-1]), 0.05)
}

// A highpass biquad must reject DC entirely once settled.
func TestBiquadHighpassBlocksDC(t *testing.T) {
	const sr, bs = 48000, 2048
	f := NewBiquad("hp", BiquadHighpass, ConstRef(0), ConstRef(1000), ConstRef(0.707), ConstRef(0))
	in := constBuf(bs, 1.0)
	out := renderMono(t, f, [][]float32{in, constBuf(bs, 1000), constBuf(bs, 0.707), constBuf(bs, 0)}, bs, sr)
	assert.InDelta(t, 0.0, float64(out[bs-1]), 0.01)
}

func TestSVFLowpassPassesDC(t *testing.T) {
	const sr, bs = 48000, 2048
	f := NewSVF("svf", SVFLowpass, ConstRef(0), ConstRef(500), ConstRef(0.1))
	in := constBuf(bs, 1.0)
	out := renderMono(t, f, [][]float32{in, constBuf(bs, 500), constBuf(bs, 0.1)}, bs, sr)
	assert.InDelta(t, 1.0, float64(out[bs-1]), 0.1)
}

func TestSVFHighpassBlocksDC(t *testing.T) {
	const sr, bs = 48000, 2048
	f := NewSVF("svf", SVFHighpass, ConstRef(0), ConstRef(500), ConstRef(0.1))
	in := constBuf(bs, 1.0)
	out := renderMono(t, f, [][]float32{in, constBuf(bs, 500), constBuf(bs, 0.1)}, bs, sr)
	assert.InDelta(t, 0.0, float64(out[bs-1]), 0.1)
}

func TestOnePoleConvergesToInput(t *testing.T) {
	const sr, bs = 48000, 4096
	f := NewOnePole("op", ConstRef(0), ConstRef(200))
	in := constBuf(bs, 0.5)
	out := renderMono(t, f, [][]float32{in, constBuf(bs, 200)}, bs, sr)
	assert.InDelta(t, 0.5, float64(out[bs-1]), 0.02)
}

func TestOnePoleClampsNonPositiveCutoff(t *testing.T) {
	const sr, bs = 48000, 16
	f := NewOnePole("op", ConstRef(0), ConstRef(-5))
	in := constBuf(bs, 1.0)
	out := renderMono(t, f, [][]float32{in, constBuf(bs, -5)}, bs, sr)
	for _, s := range out {
		assert.False(t, s != s, "OnePole produced NaN with a non-positive cutoff")
	}
}

package phonon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A unit-impulse response is the identity filter: convolving against it
// must reproduce the input exactly, modulo floating-point round trip error.
func TestConvolutionWithUnitImpulseIsIdentity(t *testing.T) {
	const sr, bs = 48000, 64
	c := NewConvolution("conv", nil, []float32{1.0}, bs)

	in := make([]float32, bs)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 3 * float64(i) / float64(bs)))
	}
	out := renderMono(t, c, [][]float32{in}, bs, sr)
	for i := range in {
		assert.InDelta(t, float64(in[i]), float64(out[i]), 1e-3)
	}
}

func TestConvolutionSilentInputStaysSilent(t *testing.T) {
	const sr, bs = 48000, 64
	c := NewConvolution("conv", nil, []float32{1.0, 0.5, 0.25}, bs)
	out := renderMono(t, c, [][]float32{constBuf(bs, 0)}, bs, sr)
	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
}

func TestSpectralFreezeProducesSilenceWhenNotFrozen(t *testing.T) {
	const sr, n = 48000, 64
	f := NewSpectralFreeze("sf", nil, nil, n)
	in := constBuf(n, 0.5)
	out := renderMono(t, f, [][]float32{in, constBuf(n, 0)}, n, sr)
	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
}

func TestSpectralFreezeSustainsAfterFreezeGoesHigh(t *testing.T) {
	const sr, n = 48000, 64
	f := NewSpectralFreeze("sf", nil, nil, n)
	// a short tone burst gives several non-zero frequency bins to freeze.
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 4 * float64(i) / float64(n)))
	}
	freeze := constBuf(n, 1)
	out1 := renderMono(t, f, [][]float32{in, freeze}, n, sr)
	assert.True(t, anyNonZero(out1), "freezing a non-silent block should resynthesise a non-silent tone")

	// a second block, still frozen, should keep resynthesising the frozen
	// frame even though the new input itself is silent.
	out2 := renderMono(t, f, [][]float32{constBuf(n, 0), freeze}, n, sr)
	assert.True(t, anyNonZero(out2), "frozen output must persist independent of new input")
}

func TestSpectralFreezeReleasesOnFreezeLow(t *testing.T) {
	const sr, n = 48000, 64
	f := NewSpectralFreeze("sf", nil, nil, n)
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 4 * float64(i) / float64(n)))
	}
	renderMono(t, f, [][]float32{in, constBuf(n, 1)}, n, sr)

	out := renderMono(t, f, [][]float32{constBuf(n, 0), constBuf(n, 0)}, n, sr)
	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
}

func anyNonZero(buf []float32) bool {
	for _, s := range buf {
		if s != 0 {
			return true
		}
	}
	return false
}

package phonon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOscillatorSineFrequency(t *testing.T) {
	const sampleRate = 48000
	const blockSize = 480
	osc := NewOscillator("osc", WaveSine, ConstRef(100))

	g := NewGraph(sampleRate, blockSize)
	g.AddNode(0, osc)
	g.SetOutput(0)
	assert.NoError(t, g.Compile())

	ctx := &RenderContext{SampleRate: sampleRate, BlockSize: blockSize}
	out := g.ProcessBufferAt(ctx)

	// A 100Hz sine at 48kHz completes one period in 480 samples - exactly
	// one block - so the buffer should return to (near) its starting value.
	assert.InDelta(t, float64(out[0]), float64(out[len(out)-1]), 0.05)

	peak := float32(0)
	for _, s := range out {
		if s > peak {
			peak = s
		}
	}
	assert.InDelta(t, 1.0, float64(peak), 0.05)
}

func TestOscillatorWaveShapes(t *testing.T) {
	for shape, want := range map[WaveShape]float64{
		WaveSine:     0,
		WaveSquare:   1,
		WaveSaw:      -1,
		WaveTriangle: 1,
	} {
		got := waveAt(shape, 0)
		assert.InDelta(t, want, got, 1e-9, "shape %v at phase 0", shape)
	}
}

func TestOscillatorPhaseCarriesAcrossBlocks(t *testing.T) {
	const sampleRate = 48000
	osc := NewOscillator("osc", WaveSaw, ConstRef(440))
	ctx := &RenderContext{SampleRate: sampleRate, BlockSize: 64}

	freq := make([]float32, ctx.BlockSize)
	for i := range freq {
		freq[i] = 440
	}
	out1 := make([]float32, ctx.BlockSize)
	osc.Process(ctx, [][]float32{freq}, out1)
	phaseAfterFirstBlock := osc.phase

	out2 := make([]float32, ctx.BlockSize)
	osc.Process(ctx, [][]float32{freq}, out2)

	// phase must have kept accumulating rather than resetting to 0 at the
	// start of the second block.
	assert.NotEqual(t, 0.0, phaseAfterFirstBlock)
	assert.InDelta(t, waveAt(WaveSaw, phaseAfterFirstBlock), float64(out2[0]), 1e-6)
}

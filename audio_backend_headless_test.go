//go:build headless

package phonon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeadlessBackendAttachCapturesBlockDuration(t *testing.T) {
	e := NewEngine(48000, 480, 4096) // 480 samples @ 48kHz = 10ms blocks
	b, err := NewHeadlessBackend(e.SampleRate)
	assert.NoError(t, err)

	b.Attach(e)
	assert.Equal(t, 10*time.Millisecond, b.period)
}

func TestHeadlessBackendDrainOnceIsNoopWithoutAttach(t *testing.T) {
	b, err := NewHeadlessBackend(48000)
	assert.NoError(t, err)
	assert.NotPanics(t, func() { b.DrainOnce() })
}

func TestHeadlessBackendDrainOnceConsumesRingBuffer(t *testing.T) {
	e := NewEngine(48000, 16, 1024)
	g := NewGraph(e.SampleRate, e.BlockSize)
	g.AddNode(0, NewOutput("out", ConstRef(1), 1, MixStereo))
	g.SetOutput(0)
	assert.NoError(t, g.Compile())
	e.SwapGraph(g)

	e.ring.Write(make([]float32, e.BlockSize*2))
	assert.Equal(t, e.BlockSize*2, e.ring.Available())

	b, err := NewHeadlessBackend(e.SampleRate)
	assert.NoError(t, err)
	b.Attach(e)
	b.DrainOnce()

	assert.Equal(t, 0, e.ring.Available())
}

func TestHeadlessBackendStartStopCloseAreNoops(t *testing.T) {
	b, err := NewHeadlessBackend(48000)
	assert.NoError(t, err)
	assert.NotPanics(t, func() {
		b.Start()
		b.Stop()
		b.Close()
	})
}

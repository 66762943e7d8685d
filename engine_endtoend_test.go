package phonon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func renderOneEngineBlock(e *Engine) []float32 {
	g := e.graph.Load()
	ctx := &RenderContext{SampleRate: e.SampleRate, BlockSize: e.BlockSize}
	ctx.Snapshot = e.clock.Snapshot(0)
	out := g.ProcessBufferAt(ctx)
	cp := make([]float32, len(out))
	copy(cp, out)
	return cp
}

func TestEngineDefaultGraphIsSilent(t *testing.T) {
	e := NewEngine(48000, 32, 1024)
	out := renderOneEngineBlock(e)
	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
}

func TestEngineSwapGraphReplacesOutput(t *testing.T) {
	e := NewEngine(48000, 32, 1024)

	g := NewGraph(e.SampleRate, e.BlockSize)
	g.AddNode(0, NewOutput("out", ConstRef(1), 1, MixStereo))
	g.SetOutput(0)
	assert.NoError(t, g.Compile())
	e.SwapGraph(g)

	out := renderOneEngineBlock(e)
	for _, s := range out {
		assert.Equal(t, float32(1), s)
	}
}

func TestEngineHushRevertsToSilence(t *testing.T) {
	e := NewEngine(48000, 32, 1024)

	g := NewGraph(e.SampleRate, e.BlockSize)
	g.AddNode(0, NewOutput("out", ConstRef(1), 1, MixStereo))
	g.SetOutput(0)
	assert.NoError(t, g.Compile())
	e.SwapGraph(g)
	assert.NotEqual(t, float32(0), renderOneEngineBlock(e)[0])

	e.Hush()
	out := renderOneEngineBlock(e)
	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
}

func TestEngineSetCPSDelegatesToClock(t *testing.T) {
	e := NewEngine(48000, 32, 1024)
	e.SetCPS(3.0)
	assert.Equal(t, 3.0, e.clock.CPS())
}

func TestEnginePanicResetsClockPositionButKeepsTempo(t *testing.T) {
	e := NewEngine(48000, 32, 1024)
	e.SetCPS(2.5)
	e.startSamp.Store(96000) // pretend time has moved on

	e.Panic()

	assert.Equal(t, 2.5, e.clock.CPS(), "panic must not change tempo")
	assert.Equal(t, int64(0), e.startSamp.Load())
	assert.Equal(t, 0.0, e.clock.Snapshot(0).Position.Float(), "panic must reset cycle position to the origin")
}

func TestEngineRunFeedsRingBuffer(t *testing.T) {
	e := NewEngine(48000, 64, 4096)
	g := NewGraph(e.SampleRate, e.BlockSize)
	g.AddNode(0, NewOutput("out", ConstRef(0.5), 1, MixStereo))
	g.SetOutput(0)
	assert.NoError(t, g.Compile())
	e.SwapGraph(g)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	assert.Greater(t, e.stats.BlocksRendered.Load(), uint64(0), "the synthesis worker should have rendered at least one block")

	dst := make([]float32, 8)
	e.ReadSamples(dst)
	assert.Equal(t, float32(0.5), dst[0])
}

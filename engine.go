// engine.go - the realtime pipeline: a synthesis worker goroutine renders
// fixed-size blocks from the current *Graph into a RingBuffer, which the
// device backend drains on its own callback thread.
//
// Grounded on the teacher's audio_backend_oto.go atomic.Pointer[SoundChip]
// hot-swap (replace the thing a realtime reader dereferences without ever
// taking a lock on the read path) and the single-writer-goroutine
// discipline audio_chip.go documents for SoundChip mutation.

package phonon

import (
	"context"
	"sync/atomic"
	"time"
)

// EngineStats are the counters a caller (IPC server, CLI, tests) can poll
// to observe the synthesis worker's health.
type EngineStats struct {
	BlocksRendered atomic.Uint64
	Underruns      atomic.Uint64
}

// Engine owns the clock, the active graph, the ring buffer, and the
// synthesis worker goroutine that keeps the ring buffer fed.
type Engine struct {
	SampleRate int
	BlockSize  int

	clock     *GlobalClock
	graph     atomic.Pointer[Graph]
	ring      *RingBuffer
	stats     EngineStats
	recorder  *Recorder
	startSamp atomic.Int64

	debugTiming bool
}

// NewEngine builds an engine with an initially silent graph (no nodes).
func NewEngine(sampleRate, blockSize, ringCapacity int) *Engine {
	e := &Engine{
		SampleRate: sampleRate,
		BlockSize:  blockSize,
		clock:      NewGlobalClock(sampleRate, 1.0),
		ring:       NewRingBuffer(ringCapacity),
	}
	empty := NewGraph(sampleRate, blockSize)
	silence := NewOutput("output", ConstRef(0), 1, MixStereo)
	empty.AddNode(0, silence)
	empty.SetOutput(0)
	_ = empty.Compile()
	e.graph.Store(empty)
	return e
}

// SetDebugTiming sets the engine's debug-timing flag (from the
// DEBUG_BUFFER_TIMING env var). The flag is stored only: Run does not read
// it and no per-block timing is logged.
func (e *Engine) SetDebugTiming(on bool) { e.debugTiming = on }

// SwapGraph atomically replaces the graph the synthesis worker renders
// from. The new graph must already be compiled.
func (e *Engine) SwapGraph(g *Graph) {
	e.graph.Store(g)
}

// SetCPS changes tempo effective immediately (next block boundary),
// preserving cycle-position phase.
func (e *Engine) SetCPS(cps float64) {
	e.clock.SetCPS(e.startSamp.Load(), cps)
}

// AttachRecorder routes every rendered block to rec in addition to the
// ring buffer, until DetachRecorder is called.
func (e *Engine) AttachRecorder(rec *Recorder) { e.recorder = rec }

// DetachRecorder stops routing rendered audio to any recorder.
func (e *Engine) DetachRecorder() { e.recorder = nil }

// Run drives the synthesis worker until ctx is cancelled. It is meant to
// be the body of a single long-lived goroutine; spec.md §5 treats the
// synthesis thread as the sole graph reader/renderer.
func (e *Engine) Run(ctx context.Context) {
	block := make([]float32, e.BlockSize*2) // interleaved stereo
	renderCtx := &RenderContext{SampleRate: e.SampleRate, BlockSize: e.BlockSize}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		g := e.graph.Load()
		startSamp := e.startSamp.Load()
		renderCtx.Snapshot = e.clock.Snapshot(startSamp)
		renderCtx.StartSample = startSamp

		out := g.ProcessBufferAt(renderCtx)
		copy(block[:len(out)], out)

		written := e.ring.Write(block[:len(out)])
		if written < len(out) {
			e.stats.Underruns.Add(1)
		}
		if e.recorder != nil {
			e.recorder.Write(block[:len(out)])
		}

		e.stats.BlocksRendered.Add(1)
		e.startSamp.Add(int64(e.BlockSize))
	}
}

// ReadSamples drains up to len(dst) interleaved stereo samples from the
// ring buffer into dst, the method the audio backend's callback calls.
func (e *Engine) ReadSamples(dst []float32) int {
	return e.ring.Read(dst)
}

// Hush silences the engine immediately by swapping in an empty graph,
// without disturbing the clock (matching spec.md §6's Hush semantics:
// stop sound, keep time running).
func (e *Engine) Hush() {
	empty := NewGraph(e.SampleRate, e.BlockSize)
	silence := NewOutput("output", ConstRef(0), 1, MixStereo)
	empty.AddNode(0, silence)
	empty.SetOutput(0)
	_ = empty.Compile()
	e.SwapGraph(empty)
}

// Panic is Hush plus a clock reset to cycle 0, spec.md §6's harder reset.
// The clock is reanchored in place (GlobalClock.Reset, under its own
// lock) rather than replaced, so the Run goroutine's concurrent Snapshot
// reads never race against this call.
func (e *Engine) Panic() {
	e.Hush()
	e.clock.Reset(e.clock.CPS())
	e.startSamp.Store(0)
}

// blockDuration is how long one block represents in wall time, used only
// by the headless backend's real-time pacing (spec.md §6: headless mode
// still paces itself so tests exercising timing behave consistently).
func (e *Engine) blockDuration() time.Duration {
	return time.Duration(float64(e.BlockSize) / float64(e.SampleRate) * float64(time.Second))
}

// audio_backend_headless.go - a no-device backend for the verification
// harness and CI. The file carries no build tag, so it is compiled into
// every build and `--backend headless` can select it at run time.

package phonon

import "time"

// HeadlessBackend paces itself against wall time by sleeping one block
// duration per drain, rather than an actual device callback, so timing-
// sensitive tests behave the same whether or not real audio hardware is
// present.
type HeadlessBackend struct {
	engine *Engine
	period time.Duration
}

// NewHeadlessBackend returns a headless backend. sampleRate is unused; the
// pacing period is taken from the engine's block duration in Attach.
func NewHeadlessBackend(sampleRate int) (*HeadlessBackend, error) {
	return &HeadlessBackend{}, nil
}

// Attach binds the backend to an engine.
func (b *HeadlessBackend) Attach(e *Engine) {
	b.engine = e
	b.period = e.blockDuration()
}

// Start is a no-op; the headless backend has no callback thread of its
// own to start - callers drive it with DrainOnce/Run in tests.
func (b *HeadlessBackend) Start() {}

// Stop is a no-op.
func (b *HeadlessBackend) Stop() {}

// Close is a no-op.
func (b *HeadlessBackend) Close() {}

// DrainOnce reads one block-sized chunk from the engine's ring buffer,
// discarding it, and sleeps for one block duration to approximate
// real-time pacing.
func (b *HeadlessBackend) DrainOnce() {
	if b.engine == nil {
		return
	}
	buf := make([]float32, b.engine.BlockSize*2)
	b.engine.ReadSamples(buf)
	time.Sleep(b.period)
}

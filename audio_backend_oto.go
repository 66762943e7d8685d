//go:build !headless

// audio_backend_oto.go - the default realtime audio backend, built on
// ebitengine/oto/v3.
//
// Adapted from the teacher's audio_backend_oto.go: same atomic.Pointer
// hot-swap of the thing the io.Reader callback dereferences, same
// pre-allocated byte<->float32 conversion buffer, retargeted from a
// *SoundChip to an *Engine's ring buffer.

package phonon

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoBackend drains an *Engine's ring buffer through an oto.Player.
type OtoBackend struct {
	ctx       *oto.Context
	player    *oto.Player
	engine    atomic.Pointer[Engine]
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex
}

// NewOtoBackend opens the default system audio device at sampleRate,
// stereo float32.
func NewOtoBackend(sampleRate int) (*OtoBackend, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoBackend{ctx: ctx}, nil
}

// Attach binds the backend to an engine and prepares the player.
func (b *OtoBackend) Attach(e *Engine) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.engine.Store(e)
	b.player = b.ctx.NewPlayer(b)
	b.sampleBuf = make([]float32, 4096)
}

// Read implements io.Reader for oto.Player: it is called on oto's own
// callback thread, so it must never block or take a lock shared with the
// synthesis worker - only the ring buffer's lock-free Read is used here.
func (b *OtoBackend) Read(p []byte) (n int, err error) {
	e := b.engine.Load()
	if e == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	if len(b.sampleBuf) < numSamples {
		b.sampleBuf = make([]float32, numSamples)
	}
	samples := b.sampleBuf[:numSamples]
	e.ReadSamples(samples)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

// Start begins playback.
func (b *OtoBackend) Start() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.started && b.player != nil {
		b.player.Play()
		b.started = true
	}
}

// Stop halts playback without releasing the player.
func (b *OtoBackend) Stop() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.started && b.player != nil {
		b.player.Pause()
		b.started = false
	}
}

// Close stops playback and releases the player; the oto context stays open.
func (b *OtoBackend) Close() {
	b.Stop()
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.player != nil {
		_ = b.player.Close()
		b.player = nil
	}
}

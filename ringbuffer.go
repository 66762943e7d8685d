// ringbuffer.go - a lock-free single-producer/single-consumer float32 ring
// buffer carrying interleaved stereo samples from the synthesis worker to
// the device callback.
//
// Grounded on the teacher's atomic.Pointer hot-swap discipline used
// throughout audio_backend_oto.go (lock-free reads on the callback's hot
// path, a mutex only ever taken for setup); the read/write cursors here
// follow the same "atomics for the hot path, nothing else" rule.

package phonon

import "sync/atomic"

// RingBuffer is a fixed-capacity circular buffer of float32 samples. Capacity
// must be a power of two. One goroutine may call Write; a different single
// goroutine may call Read; neither needs a lock against the other.
type RingBuffer struct {
	buf      []float32
	mask     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// NewRingBuffer returns a ring buffer holding capacity samples (rounded up
// to the next power of two).
func NewRingBuffer(capacity int) *RingBuffer {
	n := 1
	for n < capacity {
		n *= 2
	}
	return &RingBuffer{buf: make([]float32, n), mask: uint64(n - 1)}
}

// Capacity returns the buffer's slot count.
func (r *RingBuffer) Capacity() int { return len(r.buf) }

// Available returns how many samples are currently readable.
func (r *RingBuffer) Available() int {
	return int(r.writePos.Load() - r.readPos.Load())
}

// Free returns how many samples can currently be written without blocking.
func (r *RingBuffer) Free() int {
	return len(r.buf) - r.Available()
}

// Write copies as many samples from src as fit, returning the count
// written. It never blocks; the caller decides how to handle a partial
// write (typically: drop the synthesis block and log an underrun upstream,
// per spec.md §7's "never block the realtime thread" rule).
func (r *RingBuffer) Write(src []float32) int {
	free := r.Free()
	n := len(src)
	if n > free {
		n = free
	}
	wp := r.writePos.Load()
	for i := 0; i < n; i++ {
		r.buf[(wp+uint64(i))&r.mask] = src[i]
	}
	r.writePos.Store(wp + uint64(n))
	return n
}

// Read copies as many samples into dst as are available, zero-filling the
// remainder - an underrun becomes silence, never leftover garbage data.
func (r *RingBuffer) Read(dst []float32) int {
	avail := r.Available()
	n := len(dst)
	readable := n
	if readable > avail {
		readable = avail
	}
	rp := r.readPos.Load()
	for i := 0; i < readable; i++ {
		dst[i] = r.buf[(rp+uint64(i))&r.mask]
	}
	for i := readable; i < n; i++ {
		dst[i] = 0
	}
	r.readPos.Store(rp + uint64(readable))
	return readable
}

// clock.go - the single global clock driving cycle position from wall time.
//
// Grounded on the teacher's SoundChip.mutex sync.RWMutex short-critical-
// section discipline (audio_chip.go's GenerateSample: RLock, snapshot the
// fields the hot path needs, RUnlock, then compute outside the lock).

package phonon

import (
	"math"
	"sync"
)

// GlobalClock maps sample-accurate render position to fractional cycle
// position under a tempo (cycles-per-second) that can change at any time
// without discontinuity: a SetCPS call preserves the cycle position at the
// moment of the change and only alters how fast position advances after it.
type GlobalClock struct {
	mu         sync.RWMutex
	sampleRate int
	cps        float64
	// baseSample/baseCycle anchor the piecewise-linear position function:
	// position(sample) = baseCycle + (sample-baseSample)/sampleRate*cps
	baseSample int64
	baseCycle  Frac
}

// NewGlobalClock creates a clock starting at cycle 0, the given tempo.
func NewGlobalClock(sampleRate int, cps float64) *GlobalClock {
	return &GlobalClock{
		sampleRate: sampleRate,
		cps:        cps,
		baseSample: 0,
		baseCycle:  FracFromInt(0),
	}
}

// ClockSnapshot is the immutable state a render block needs: position at
// the block's first sample plus the fixed per-sample cycle increment to
// apply across the block (tempo is treated as constant within one block,
// matching spec.md §4.6's buffer-granularity tempo update rule).
type ClockSnapshot struct {
	Position  Frac
	Increment float64 // cycles advanced per sample
	CPS       float64
}

// Snapshot returns the clock state to use for a block whose first sample
// index (since the clock was created) is atSample.
func (c *GlobalClock) Snapshot(atSample int64) ClockSnapshot {
	c.mu.RLock()
	baseSample := c.baseSample
	baseCycle := c.baseCycle
	cps := c.cps
	sr := c.sampleRate
	c.mu.RUnlock()

	elapsed := atSample - baseSample
	delta := NewFrac(int64(float64(elapsed)*cps*1_000_000), int64(sr)*1_000_000)
	return ClockSnapshot{
		Position:  baseCycle.Add(delta),
		Increment: cps / float64(sr),
		CPS:       cps,
	}
}

// SetCPS changes tempo effective at atSample, preserving phase: the cycle
// position computed for atSample under the old tempo becomes the new
// anchor, so cycle position is continuous across the tempo change. Per
// spec.md §4.6, a change of less than 1e-4 from the current tempo is a
// no-op (avoids rebasing on jitter-sized tempo nudges).
func (c *GlobalClock) SetCPS(atSample int64, newCPS float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if math.Abs(newCPS-c.cps) < 1e-4 {
		return
	}

	elapsed := atSample - c.baseSample
	delta := NewFrac(int64(float64(elapsed)*c.cps*1_000_000), int64(c.sampleRate)*1_000_000)
	c.baseCycle = c.baseCycle.Add(delta)
	c.baseSample = atSample
	c.cps = newCPS
}

// Reset reanchors the clock to cycle 0 at sample 0 under the given tempo,
// in place: spec.md §5 treats the clock as "the single shared mutable
// datum for timing", guarded by a short critical section rather than
// replaced wholesale, so a concurrent Snapshot reader never observes a
// half-initialised or swapped-out clock.
func (c *GlobalClock) Reset(cps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseSample = 0
	c.baseCycle = FracFromInt(0)
	c.cps = cps
}

// CPS returns the current tempo.
func (c *GlobalClock) CPS() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cps
}

// SampleRate returns the clock's fixed sample rate.
func (c *GlobalClock) SampleRate() int { return c.sampleRate }

package phonon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockSnapshotAtZeroIsOrigin(t *testing.T) {
	c := NewGlobalClock(48000, 1.0)
	snap := c.Snapshot(0)
	assert.Equal(t, 0.0, snap.Position.Float())
	assert.InDelta(t, 1.0/48000.0, snap.Increment, 1e-12)
	assert.Equal(t, 1.0, snap.CPS)
}

func TestClockSnapshotAdvancesLinearlyWithSampleRateAndCPS(t *testing.T) {
	c := NewGlobalClock(48000, 2.0) // 2 cycles per second
	snap := c.Snapshot(48000)       // one second in
	assert.InDelta(t, 2.0, snap.Position.Float(), 1e-6)
}

func TestClockSetCPSPreservesPhaseAtChangePoint(t *testing.T) {
	c := NewGlobalClock(48000, 1.0)
	// half a second in, at 1 cps, position should be 0.5 cycles.
	before := c.Snapshot(24000)
	assert.InDelta(t, 0.5, before.Position.Float(), 1e-6)

	c.SetCPS(24000, 4.0)

	// the snapshot taken exactly at the change point must report the same
	// position as just before the change - no discontinuity.
	at := c.Snapshot(24000)
	assert.InDelta(t, 0.5, at.Position.Float(), 1e-6)
	assert.Equal(t, 4.0, at.CPS)
}

func TestClockSetCPSChangesRateAfterwards(t *testing.T) {
	c := NewGlobalClock(48000, 1.0)
	c.SetCPS(24000, 4.0)

	// one more second (48000 samples) after the tempo change, at 4 cps,
	// should advance 4 cycles from the 0.5 anchor.
	after := c.Snapshot(24000 + 48000)
	assert.InDelta(t, 0.5+4.0, after.Position.Float(), 1e-6)
}

func TestClockCPSAndSampleRateAccessors(t *testing.T) {
	c := NewGlobalClock(44100, 1.5)
	assert.Equal(t, 1.5, c.CPS())
	assert.Equal(t, 44100, c.SampleRate())
}

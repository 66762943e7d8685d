package phonon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// rampPcm builds a SharedPcm whose single channel ramps linearly from 0 to 1,
// giving every playback position a distinct, checkable value.
func rampPcm(frames, sampleRate int) *SharedPcm {
	ch := make([]float32, frames)
	for i := range ch {
		ch[i] = float32(i) / float32(frames-1)
	}
	return &SharedPcm{Name: "ramp", SampleRate: sampleRate, Channels: [][]float32{ch}, BaseFreq: 261.63}
}

func TestSampleTriggersVoiceOnOnset(t *testing.T) {
	const sr, bs = 48000, 64
	pcm := rampPcm(1000, sr)
	bank := NewSampleBank()
	bank.Put("ramp", pcm)

	s := NewSample("s", bank, Pure("ramp"), ConstRef(1), UnitRate)
	ctx := &RenderContext{SampleRate: sr, BlockSize: bs}
	// one cycle exactly spans this block, so the onset lands at sample 0.
	ctx.Snapshot = ClockSnapshot{Position: FracFromInt(0), Increment: 1.0 / float64(bs), CPS: 1}

	out := make([]float32, bs)
	s.Process(ctx, [][]float32{constBuf(bs, 1)}, out)

	assert.Equal(t, float32(0), out[0], "voice starts at frame 0 of the sample")
	assert.Greater(t, out[bs-1], out[0], "voice should have advanced forward through the ramp")
}

func TestSamplePolyphonicVoicesOverlap(t *testing.T) {
	const sr, bs = 48000, 64
	pcm := rampPcm(1000, sr)
	bank := NewSampleBank()
	bank.Put("ramp", pcm)

	// two onsets within the block: one at the very start, one retrigger
	// partway through - both voices should keep sounding and summing.
	trigger := FastF(Pure("ramp"), 2)
	s := NewSample("s", bank, trigger, ConstRef(1), UnitRate)
	ctx := &RenderContext{SampleRate: sr, BlockSize: bs}
	ctx.Snapshot = ClockSnapshot{Position: FracFromInt(0), Increment: 1.0 / float64(bs), CPS: 1}

	out := make([]float32, bs)
	s.Process(ctx, [][]float32{constBuf(bs, 1)}, out)

	assert.Len(t, s.voices, 2, "both triggered voices should remain active (polyphonic, not cut off)")
}

func TestSamplePlaybackMonophonicRetrigger(t *testing.T) {
	const sr, bs = 48000, 200
	pcm := rampPcm(1000, sr)
	sp := NewSamplePlayback("sp", pcm, nil, nil, UnitRate, false)

	// gate high for the whole block except sample 50: it falls there and
	// rises again at sample 51, where the voice should restart at position 0.
	gate := make([]float32, bs)
	for i := 0; i < bs; i++ {
		if i != 50 {
			gate[i] = 1
		}
	}
	out := renderMono(t, sp, [][]float32{gate, constBuf(bs, 1)}, bs, sr)

	assert.Equal(t, float32(0), out[0], "first rising edge starts playback at frame 0")
	assert.Equal(t, float32(0), out[51], "retrigger after the gap restarts playback at frame 0")
	assert.Greater(t, out[49], out[0], "playback advanced during the first high run")
}

func TestSamplePlaybackSilentWithNoSample(t *testing.T) {
	const sr, bs = 48000, 32
	sp := NewSamplePlayback("sp", nil, nil, nil, UnitRate, false)
	out := renderMono(t, sp, [][]float32{gateBuf(bs, bs), constBuf(bs, 1)}, bs, sr)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestSliceSelectsRequestedSliceOnTrigger(t *testing.T) {
	const sr, bs = 48000, 400
	const frames, n = 1000, 4
	pcm := rampPcm(frames, sr)
	sl := NewSlice("sl", pcm, n, nil, nil)

	// trigger slice 2 (of 4): sliceStart = 2 * (1000/4) = 500.
	gate := gateBuf(bs, bs)
	idx := constBuf(bs, 2)
	out := renderMono(t, sl, [][]float32{gate, idx}, bs, sr)

	wantStart := float32(500) / float32(frames-1)
	assert.InDelta(t, wantStart, out[0], 1e-3)
}

func TestSliceStopsAtSliceBoundary(t *testing.T) {
	const sr = 48000
	const frames, n = 1000, 4
	sliceLen := frames / n
	bs := sliceLen + 50 // longer than one slice's worth of playback
	pcm := rampPcm(frames, sr)
	sl := NewSlice("sl", pcm, n, nil, nil)

	gate := gateBuf(bs, bs)
	idx := constBuf(bs, 0)
	out := renderMono(t, sl, [][]float32{gate, idx}, bs, sr)

	// once past the first slice's length in samples, playback must have
	// stopped (silence) rather than bleeding into the next slice.
	assert.Equal(t, float32(0), out[bs-1])
}

func TestSliceHeldGateStartsSliceOnce(t *testing.T) {
	const sr, bs = 48000, 100
	const frames, n = 1000, 4
	pcm := rampPcm(frames, sr)
	sl := NewSlice("sl", pcm, n, nil, nil)

	// gate stays high the whole time: only the first rising edge (at i=0)
	// should start a slice; there is no second edge to retrigger it.
	gate := gateBuf(bs, bs)
	idx := constBuf(bs, 1)
	out := renderMono(t, sl, [][]float32{gate, idx}, bs, sr)

	wantStart := float32(250) / float32(frames-1) // slice 1 starts at 250
	assert.InDelta(t, wantStart, out[0], 1e-3)
}

func TestResolveSpeedUnitHzUsesBaseFreq(t *testing.T) {
	pcm := &SharedPcm{BaseFreq: 440}
	got := resolveSpeed(UnitHz, 880, pcm)
	assert.InDelta(t, 2.0, got, 1e-9, "playing at 2x the base frequency should resolve to 2x speed")
}

func TestResolveSpeedUnitSecondsUsesDuration(t *testing.T) {
	pcm := &SharedPcm{SampleRate: 1000, Channels: [][]float32{make([]float32, 2000)}} // 2s sample
	got := resolveSpeed(UnitSeconds, 1.0, pcm)
	assert.InDelta(t, 2.0, got, 1e-9, "a 2s sample played back in 1s should resolve to 2x speed")
}

func TestResolveSpeedUnitRatePassesThrough(t *testing.T) {
	pcm := &SharedPcm{}
	assert.Equal(t, 1.5, resolveSpeed(UnitRate, 1.5, pcm))
}

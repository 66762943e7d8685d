// dsp_envelope.go - gate-driven envelope generators: AR, AD, ADSR, and a
// generic multi-segment envelope.
//
// Grounded on original_source/src/nodes/adsr.rs's phase state machine
// (Idle/Attack/Decay/Sustain/Release, linear-in-level ramps measured in
// seconds) and the teacher's updateEnvelope in audio_chip.go (the same
// shape: a per-voice phase enum advanced once per sample against a target
// level and a rate derived from the stage's duration).

package phonon

import "math"

type envPhase int

const (
	envIdle envPhase = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// ADSR is a four-stage gate-driven envelope. Gate is treated as a trigger:
// values > 0.5 mean "held down".
type ADSR struct {
	name                            string
	Gate                            SignalRef
	Attack, Decay, Sustain, Release SignalRef
	phase                           envPhase
	level                           float64
	gateWasHigh                     bool
}

func NewADSR(name string, gate, attack, decay, sustain, release SignalRef) *ADSR {
	return &ADSR{name: name, Gate: gate, Attack: attack, Decay: decay, Sustain: sustain, Release: release}
}

func (e *ADSR) Name() string { return e.name }
func (e *ADSR) Inputs() []SignalRef {
	return []SignalRef{e.Gate, e.Attack, e.Decay, e.Sustain, e.Release}
}
func (e *ADSR) ProvidesDelay() bool { return false }
func (e *ADSR) Channels() int       { return 1 }

func (e *ADSR) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	gate, attackBuf, decayBuf, sustainBuf, releaseBuf := inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]
	sr := float64(ctx.SampleRate)

	for i := range out {
		high := gate[i] > 0.5
		if high && !e.gateWasHigh {
			e.phase = envAttack
		} else if !high && e.gateWasHigh {
			e.phase = envRelease
		}
		e.gateWasHigh = high

		attack := float64(attackBuf[i])
		decay := float64(decayBuf[i])
		sustain := float64(sustainBuf[i])
		release := float64(releaseBuf[i])

		switch e.phase {
		case envIdle:
			e.level = 0
		case envAttack:
			step := perSampleStep(attack, sr)
			e.level += step
			if e.level >= 1 {
				e.level = 1
				e.phase = envDecay
			}
		case envDecay:
			step := perSampleStep(decay, sr)
			e.level -= step
			if e.level <= sustain {
				e.level = sustain
				e.phase = envSustain
			}
		case envSustain:
			e.level = sustain
		case envRelease:
			step := perSampleStep(release, sr)
			e.level -= step
			if e.level <= 0 {
				e.level = 0
				e.phase = envIdle
			}
		}
		out[i] = float32(e.level)
	}
}

// segmentValue interpolates a fraction frac in [0,1] of the way from y0 to
// seg.Target, per seg.Curve.
func segmentValue(seg SegmentSpec, y0, frac float64) float64 {
	const epsilon = 1e-9
	y1 := seg.Target
	if seg.Curve == CurveExp && sameSign(y0, y1) && math.Abs(y0) > epsilon && math.Abs(y1) > epsilon {
		return y0 * math.Pow(y1/y0, frac)
	}
	return y0 + (y1-y0)*frac
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// perSampleStep converts a stage duration in seconds into a linear
// per-sample increment covering the full [0,1] range in that time.
func perSampleStep(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 1
	}
	return 1 / (seconds * sampleRate)
}

// AR is attack-release only (no sustain plateau): it always returns to
// idle once the release ramp completes, ignoring how long the gate stays
// held beyond the attack ramp.
type AR struct {
	name            string
	Gate            SignalRef
	Attack, Release SignalRef
	phase           envPhase
	level           float64
	gateWasHigh     bool
}

func NewAR(name string, gate, attack, release SignalRef) *AR {
	return &AR{name: name, Gate: gate, Attack: attack, Release: release}
}

func (e *AR) Name() string        { return e.name }
func (e *AR) Inputs() []SignalRef { return []SignalRef{e.Gate, e.Attack, e.Release} }
func (e *AR) ProvidesDelay() bool { return false }
func (e *AR) Channels() int       { return 1 }

func (e *AR) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	gate, attackBuf, releaseBuf := inputs[0], inputs[1], inputs[2]
	sr := float64(ctx.SampleRate)

	for i := range out {
		high := gate[i] > 0.5
		if high && !e.gateWasHigh {
			e.phase = envAttack
		}
		e.gateWasHigh = high

		switch e.phase {
		case envAttack:
			e.level += perSampleStep(float64(attackBuf[i]), sr)
			if e.level >= 1 {
				e.level = 1
				e.phase = envRelease
			}
		case envRelease:
			e.level -= perSampleStep(float64(releaseBuf[i]), sr)
			if e.level <= 0 {
				e.level = 0
				e.phase = envIdle
			}
		default:
			e.level = 0
		}
		out[i] = float32(e.level)
	}
}

// AD is attack-decay-to-zero, retriggered on every gate rising edge,
// ignoring how long the gate is held (a "one-shot pluck" envelope).
type AD struct {
	name          string
	Gate          SignalRef
	Attack, Decay SignalRef
	phase         envPhase
	level         float64
	gateWasHigh   bool
}

func NewAD(name string, gate, attack, decay SignalRef) *AD {
	return &AD{name: name, Gate: gate, Attack: attack, Decay: decay}
}

func (e *AD) Name() string        { return e.name }
func (e *AD) Inputs() []SignalRef { return []SignalRef{e.Gate, e.Attack, e.Decay} }
func (e *AD) ProvidesDelay() bool { return false }
func (e *AD) Channels() int       { return 1 }

func (e *AD) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	gate, attackBuf, decayBuf := inputs[0], inputs[1], inputs[2]
	sr := float64(ctx.SampleRate)

	for i := range out {
		high := gate[i] > 0.5
		if high && !e.gateWasHigh {
			e.phase = envAttack
			e.level = 0
		}
		e.gateWasHigh = high

		switch e.phase {
		case envAttack:
			e.level += perSampleStep(float64(attackBuf[i]), sr)
			if e.level >= 1 {
				e.level = 1
				e.phase = envDecay
			}
		case envDecay:
			e.level -= perSampleStep(float64(decayBuf[i]), sr)
			if e.level <= 0 {
				e.level = 0
				e.phase = envIdle
			}
		default:
			e.level = 0
		}
		out[i] = float32(e.level)
	}
}

// SegmentCurve selects how a SegmentSpec interpolates toward its target.
type SegmentCurve int

const (
	CurveLinear SegmentCurve = iota
	CurveExp
)

// SegmentSpec is one ramp in a Segments envelope: reach Target level over
// Duration seconds, along Curve. Per spec.md §4.5, CurveExp uses
// y = y0*(y1/y0)^t when the segment's start and target share a sign and
// both exceed a small epsilon in magnitude; otherwise it falls back to
// linear (an exponential curve through a zero bound, or between bounds of
// opposite sign, is undefined, so CurveExp degrades gracefully rather than
// producing NaN/Inf).
type SegmentSpec struct {
	Target   float64
	Duration float64
	Curve    SegmentCurve
}

// Segments is a generic, gate-retriggered multi-segment envelope: on each
// gate rising edge it walks its segment list once, holding the final
// segment's target level until retriggered.
type Segments struct {
	name        string
	Gate        SignalRef
	segments    []SegmentSpec
	index       int
	level       float64
	segStart    float64
	elapsed     float64
	gateWasHigh bool
}

// NewSegments builds a Segments envelope that holds 0 until the first gate
// rising edge. An empty segments list is accepted and renders silence.
func NewSegments(name string, gate SignalRef, segments []SegmentSpec) *Segments {
	return &Segments{name: name, Gate: gate, segments: segments, index: len(segments)}
}

func (e *Segments) Name() string        { return e.name }
func (e *Segments) Inputs() []SignalRef { return []SignalRef{e.Gate} }
func (e *Segments) ProvidesDelay() bool { return false }
func (e *Segments) Channels() int       { return 1 }

func (e *Segments) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	gate := inputs[0]
	sr := float64(ctx.SampleRate)
	if len(e.segments) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	for i := range out {
		high := gate[i] > 0.5
		if high && !e.gateWasHigh {
			e.index = 0
			e.elapsed = 0
			e.segStart = e.level
		}
		e.gateWasHigh = high

		if e.index < len(e.segments) {
			seg := e.segments[e.index]
			e.elapsed += 1 / sr
			if seg.Duration <= 0 || e.elapsed >= seg.Duration {
				e.level = seg.Target
				e.index++
				e.elapsed = 0
				e.segStart = e.level
			} else {
				frac := e.elapsed / seg.Duration
				e.level = segmentValue(seg, e.segStart, frac)
			}
		}
		out[i] = float32(e.level)
	}
}

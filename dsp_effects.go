// dsp_effects.go - spatial and modulation effects: Decimator, Diffuser,
// AutoPan, FrequencyShifter, Phaser, FMCrossMod, EnvelopeFollower,
// SidechainCompressor.
//
// Diffuser is grounded on original_source/src/nodes/diffuser.rs's 8-line
// Hadamard feedback delay network; the rest follow spec.md §4.5's effect
// descriptions, built in the teacher's style of small, self-contained
// per-sample state machines (audio_chip.go's applyReverb comb/allpass
// network is the structural ancestor of both Diffuser's delay-line
// bookkeeping and Phaser's allpass cascade here).

package phonon

import "math"

// Decimator reduces effective sample rate and bit depth by holding samples
// across a stride and quantising amplitude to a fixed number of levels.
type Decimator struct {
	name         string
	Input        SignalRef
	SampleHold   SignalRef // downsample factor, >= 1
	Bits         SignalRef // quantisation bit depth, 1..24
	held         float32
	counter      float64
}

func NewDecimator(name string, input, sampleHold, bits SignalRef) *Decimator {
	return &Decimator{name: name, Input: input, SampleHold: sampleHold, Bits: bits}
}

func (d *Decimator) Name() string        { return d.name }
func (d *Decimator) Inputs() []SignalRef { return []SignalRef{d.Input, d.SampleHold, d.Bits} }
func (d *Decimator) ProvidesDelay() bool { return false }
func (d *Decimator) Channels() int       { return 1 }

func (d *Decimator) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, holdBuf, bitsBuf := inputs[0], inputs[1], inputs[2]
	for i, x := range in {
		stride := float64(holdBuf[i])
		if stride < 1 {
			stride = 1
		}
		d.counter++
		if d.counter >= stride {
			d.counter = 0
			d.held = x
		}
		bits := int(bitsBuf[i])
		if bits < 1 {
			bits = 1
		}
		if bits > 24 {
			bits = 24
		}
		levels := float64(int64(1) << uint(bits))
		out[i] = float32(math.Round(float64(d.held)*levels) / levels)
	}
}

// hadamard8 applies the 8x8 Hadamard transform (unnormalised butterfly
// form, then scaled by 1/sqrt(8)) in place - the mixing matrix
// original_source/src/nodes/diffuser.rs uses to spread energy across all
// eight delay lines every pass.
func hadamard8(v *[8]float64) {
	for stage := 0; stage < 3; stage++ {
		step := 1 << uint(stage)
		for i := 0; i < 8; i += step * 2 {
			for j := 0; j < step; j++ {
				a := v[i+j]
				b := v[i+j+step]
				v[i+j] = a + b
				v[i+j+step] = a - b
			}
		}
	}
	const norm = 0.3535533905932738 // 1/sqrt(8)
	for i := range v {
		v[i] *= norm
	}
}

// Diffuser is an 8-line Hadamard feedback delay network reverb. It
// provides delay because each pass reads its lines' current contents to
// produce output before writing this block's (mixed, fed-back) input into
// them, which is exactly what lets a Diffuser sit inside a feedback loop
// elsewhere in the graph.
type Diffuser struct {
	name     string
	Input    SignalRef
	Feedback SignalRef
	lines    [8][]float32
	writePos [8]int
	pending  [8]float64
}

// diffuserLineLengths are mutually-prime-ish delay lengths (in samples at
// 44.1kHz) chosen, as in the Rust source, to avoid coincident echoes.
var diffuserLineLengths = [8]int{1151, 1327, 1559, 1801, 2053, 2251, 2437, 2609}

func NewDiffuser(name string, input, feedback SignalRef) *Diffuser {
	d := &Diffuser{name: name, Input: input, Feedback: feedback}
	for i, n := range diffuserLineLengths {
		d.lines[i] = make([]float32, n)
	}
	return d
}

func (d *Diffuser) Name() string        { return d.name }
func (d *Diffuser) Inputs() []SignalRef { return []SignalRef{d.Input, d.Feedback} }
func (d *Diffuser) ProvidesDelay() bool { return true }
func (d *Diffuser) Channels() int       { return 2 }

// Process emits this block's output purely from the delay lines' current
// contents (the state left over from the previous block's CommitDelay),
// ignoring inputs - the node is scheduled before its own inputs exist for
// this block.
func (d *Diffuser) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	for i := 0; i < ctx.BlockSize; i++ {
		var taps [8]float64
		for ln := 0; ln < 8; ln++ {
			taps[ln] = float64(d.lines[ln][d.writePos[ln]])
		}
		hadamard8(&taps)
		left := float32(0)
		right := float32(0)
		for ln, v := range taps {
			if ln%2 == 0 {
				left += float32(v)
			} else {
				right += float32(v)
			}
		}
		out[i*2] = left
		out[i*2+1] = right
	}
}

// CommitDelay mixes this block's real input and feedback gain into the
// delay lines, to be read back starting next block.
func (d *Diffuser) CommitDelay(ctx *RenderContext, inputs [][]float32) {
	in, feedbackBuf := inputs[0], inputs[1]
	for i := 0; i < ctx.BlockSize; i++ {
		fb := float64(feedbackBuf[i])
		x := float64(in[i])
		var taps [8]float64
		for ln := 0; ln < 8; ln++ {
			taps[ln] = float64(d.lines[ln][d.writePos[ln]])
		}
		hadamard8(&taps)
		for ln := range d.lines {
			injected := x + taps[ln]*fb
			if math.IsNaN(injected) || math.IsInf(injected, 0) {
				injected = 0
			}
			d.lines[ln][d.writePos[ln]] = float32(injected)
			d.writePos[ln] = (d.writePos[ln] + 1) % len(d.lines[ln])
		}
	}
}

// AutoPan pans a mono Input between L/R with equal-power panning law,
// driven by an LFO at Rate Hz and Depth in [0,1].
type AutoPan struct {
	name         string
	Input        SignalRef
	Rate         SignalRef
	Depth        SignalRef
	phase        float64
}

func NewAutoPan(name string, input, rate, depth SignalRef) *AutoPan {
	return &AutoPan{name: name, Input: input, Rate: rate, Depth: depth}
}

func (a *AutoPan) Name() string        { return a.name }
func (a *AutoPan) Inputs() []SignalRef { return []SignalRef{a.Input, a.Rate, a.Depth} }
func (a *AutoPan) ProvidesDelay() bool { return false }
func (a *AutoPan) Channels() int       { return 2 }

func (a *AutoPan) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, rateBuf, depthBuf := inputs[0], inputs[1], inputs[2]
	sr := float64(ctx.SampleRate)
	for i, x := range in {
		depth := float64(depthBuf[i])
		pan := math.Sin(2*math.Pi*a.phase) * depth // [-depth, depth]
		a.phase += float64(rateBuf[i]) / sr
		a.phase -= math.Floor(a.phase)
		if math.IsNaN(a.phase) || math.IsInf(a.phase, 0) {
			a.phase = 0
		}

		// equal-power law: pan in [-1,1] -> angle in [0, pi/2]
		angle := (pan + 1) * math.Pi / 4
		out[i*2] = x * float32(math.Cos(angle))
		out[i*2+1] = x * float32(math.Sin(angle))
	}
}

// Hilbert transformer coefficients for a wideband quadrature splitter: two
// cascades of first-order allpass sections tuned so branch A lags branch B
// by ~90 degrees across most of the audio band. This is the standard
// allpass-cascade Hilbert transformer design used throughout audio
// engineering literature - no pack library implements it, so the
// coefficients themselves (not a dependency) are what is being reused.
var hilbertCoeffsA = [4]float64{0.6923877778065, 0.9360654322959, 0.9882295226860, 0.9987488452737}
var hilbertCoeffsB = [4]float64{0.4021921162426, 0.8561710882420, 0.9722909545651, 0.9952884791278}

type allpassChain struct {
	coeffs [4]float64
	x      [4]float64
	y      [4]float64
}

func (c *allpassChain) process(in float64) float64 {
	v := in
	for i, a := range c.coeffs {
		y := a*(v-c.y[i]) + c.x[i]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}
		c.x[i] = v
		c.y[i] = y
		v = y
	}
	return v
}

// FrequencyShifter shifts every spectral component of Input by ShiftHz
// using single-sideband modulation against a quadrature Hilbert pair.
type FrequencyShifter struct {
	name     string
	Input    SignalRef
	ShiftHz  SignalRef
	branchA  allpassChain
	branchB  allpassChain
	phase    float64
}

func NewFrequencyShifter(name string, input, shiftHz SignalRef) *FrequencyShifter {
	return &FrequencyShifter{
		name:    name,
		Input:   input,
		ShiftHz: shiftHz,
		branchA: allpassChain{coeffs: hilbertCoeffsA},
		branchB: allpassChain{coeffs: hilbertCoeffsB},
	}
}

func (f *FrequencyShifter) Name() string        { return f.name }
func (f *FrequencyShifter) Inputs() []SignalRef { return []SignalRef{f.Input, f.ShiftHz} }
func (f *FrequencyShifter) ProvidesDelay() bool { return false }
func (f *FrequencyShifter) Channels() int       { return 2 }

func (f *FrequencyShifter) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, shiftBuf := inputs[0], inputs[1]
	sr := float64(ctx.SampleRate)
	for i, x := range in {
		i_ := f.branchA.process(float64(x))
		q := f.branchB.process(float64(x))
		shift := clamp(float64(shiftBuf[i]), -1000, 1000)
		c := math.Cos(2 * math.Pi * f.phase)
		s := math.Sin(2 * math.Pi * f.phase)
		f.phase += shift / sr
		f.phase -= math.Floor(f.phase)
		if math.IsNaN(f.phase) || math.IsInf(f.phase, 0) {
			f.phase = 0
		}

		upper := i_*c - q*s
		lower := i_*c + q*s
		out[i*2] = float32(upper)
		out[i*2+1] = float32(lower)
	}
}

// FMCrossMod frequency-modulates a carrier oscillator using an arbitrary
// audio-rate Modulator signal (rather than another oscillator's fixed
// waveform), scaled by Index.
type FMCrossMod struct {
	name         string
	shape        WaveShape
	CarrierFreq  SignalRef
	Modulator    SignalRef
	Index        SignalRef
	phase        float64
}

func NewFMCrossMod(name string, shape WaveShape, carrierFreq, modulator, index SignalRef) *FMCrossMod {
	return &FMCrossMod{name: name, shape: shape, CarrierFreq: carrierFreq, Modulator: modulator, Index: index}
}

func (f *FMCrossMod) Name() string        { return f.name }
func (f *FMCrossMod) Inputs() []SignalRef { return []SignalRef{f.CarrierFreq, f.Modulator, f.Index} }
func (f *FMCrossMod) ProvidesDelay() bool { return false }
func (f *FMCrossMod) Channels() int       { return 1 }

func (f *FMCrossMod) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	carrier, mod, index := inputs[0], inputs[1], inputs[2]
	sr := float64(ctx.SampleRate)
	for i := range out {
		instFreq := float64(carrier[i]) * (1 + float64(index[i])*float64(mod[i]))
		out[i] = float32(waveAt(f.shape, f.phase))
		f.phase += instFreq / sr
		f.phase -= math.Floor(f.phase)
		if math.IsNaN(f.phase) || math.IsInf(f.phase, 0) {
			f.phase = 0
		}
	}
}

// Phaser is a cascaded-allpass phaser: Stages first-order allpass sections
// whose cutoff is swept by an internal LFO at Rate Hz from BaseHz up to
// Depth octaves above it, crossfaded with the dry signal by Mix.
type Phaser struct {
	name    string
	Input   SignalRef
	Rate    SignalRef
	Depth   SignalRef
	BaseHz  SignalRef
	Stages  int
	Mix     SignalRef
	phase   float64
	states  []float64
}

func NewPhaser(name string, input, rate, depth, baseHz, mix SignalRef, stages int) *Phaser {
	if stages < 1 {
		stages = 4
	}
	return &Phaser{name: name, Input: input, Rate: rate, Depth: depth, BaseHz: baseHz, Mix: mix, Stages: stages, states: make([]float64, stages)}
}

func (p *Phaser) Name() string { return p.name }
func (p *Phaser) Inputs() []SignalRef {
	return []SignalRef{p.Input, p.Rate, p.Depth, p.BaseHz, p.Mix}
}
func (p *Phaser) ProvidesDelay() bool { return false }
func (p *Phaser) Channels() int       { return 1 }

func (p *Phaser) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, rateBuf, depthBuf, baseBuf, mixBuf := inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]
	sr := float64(ctx.SampleRate)
	for i, x := range in {
		lfo := (math.Sin(2*math.Pi*p.phase) + 1) / 2
		p.phase += float64(rateBuf[i]) / sr
		p.phase -= math.Floor(p.phase)
		if math.IsNaN(p.phase) || math.IsInf(p.phase, 0) {
			p.phase = 0
		}

		octaves := float64(depthBuf[i])
		base := float64(baseBuf[i])
		cutoff := clamp(base*math.Pow(2, lfo*octaves), 20, 0.49*sr)
		w := math.Tan(math.Pi * cutoff / sr)
		a := (w - 1) / (w + 1)
		if math.IsNaN(a) || math.IsInf(a, 0) {
			a = 0
		}

		v := float64(x)
		for s := range p.states {
			y := a*v + p.states[s]
			if math.IsNaN(y) || math.IsInf(y, 0) {
				y = 0
			}
			p.states[s] = v - a*y
			if math.IsNaN(p.states[s]) || math.IsInf(p.states[s], 0) {
				p.states[s] = 0
			}
			v = y
		}
		mix := float64(mixBuf[i])
		out[i] = float32((1-mix)*float64(x) + mix*v)
	}
}

// EnvelopeFollower rectifies and smooths Input into a slowly varying
// control-rate amplitude estimate using separate attack/release one-pole
// coefficients (fast attack, slower release, the usual envelope-follower
// shape).
type EnvelopeFollower struct {
	name           string
	Input          SignalRef
	Attack         SignalRef
	Release        SignalRef
	level          float64
}

func NewEnvelopeFollower(name string, input, attack, release SignalRef) *EnvelopeFollower {
	return &EnvelopeFollower{name: name, Input: input, Attack: attack, Release: release}
}

func (e *EnvelopeFollower) Name() string        { return e.name }
func (e *EnvelopeFollower) Inputs() []SignalRef { return []SignalRef{e.Input, e.Attack, e.Release} }
func (e *EnvelopeFollower) ProvidesDelay() bool { return false }
func (e *EnvelopeFollower) Channels() int       { return 1 }

func (e *EnvelopeFollower) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, attackBuf, releaseBuf := inputs[0], inputs[1], inputs[2]
	sr := float64(ctx.SampleRate)
	for i, x := range in {
		rectified := math.Abs(float64(x))
		var coeffSeconds float64
		if rectified > e.level {
			coeffSeconds = float64(attackBuf[i])
		} else {
			coeffSeconds = float64(releaseBuf[i])
		}
		a := math.Exp(-1 / (math.Max(coeffSeconds, 1e-6) * sr))
		level := a*e.level + (1-a)*rectified
		if math.IsNaN(level) || math.IsInf(level, 0) {
			level = 0
		}
		e.level = level
		out[i] = float32(e.level)
	}
}

// SidechainCompressor reduces Input's gain in proportion to how far
// SidechainInput's smoothed envelope exceeds ThresholdDB, at Ratio:1,
// matching the classic ducking-compressor topology.
type SidechainCompressor struct {
	name           string
	Input          SignalRef
	SidechainInput SignalRef
	ThresholdDB    SignalRef
	Ratio          SignalRef
	Attack         SignalRef
	Release        SignalRef
	envelope       float64
}

func NewSidechainCompressor(name string, input, sidechain, thresholdDB, ratio, attack, release SignalRef) *SidechainCompressor {
	return &SidechainCompressor{name: name, Input: input, SidechainInput: sidechain, ThresholdDB: thresholdDB, Ratio: ratio, Attack: attack, Release: release}
}

func (c *SidechainCompressor) Name() string { return c.name }
func (c *SidechainCompressor) Inputs() []SignalRef {
	return []SignalRef{c.Input, c.SidechainInput, c.ThresholdDB, c.Ratio, c.Attack, c.Release}
}
func (c *SidechainCompressor) ProvidesDelay() bool { return false }
func (c *SidechainCompressor) Channels() int       { return 1 }

func (c *SidechainCompressor) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, side, threshBuf, ratioBuf, attackBuf, releaseBuf := inputs[0], inputs[1], inputs[2], inputs[3], inputs[4], inputs[5]
	sr := float64(ctx.SampleRate)
	for i, x := range in {
		rectified := math.Abs(float64(side[i]))
		var coeffSeconds float64
		if rectified > c.envelope {
			coeffSeconds = float64(attackBuf[i])
		} else {
			coeffSeconds = float64(releaseBuf[i])
		}
		a := math.Exp(-1 / (math.Max(coeffSeconds, 1e-6) * sr))
		envelope := a*c.envelope + (1-a)*rectified
		if math.IsNaN(envelope) || math.IsInf(envelope, 0) {
			envelope = 0
		}
		c.envelope = envelope

		envDB := 20 * math.Log10(math.Max(c.envelope, 1e-9))
		threshold := float64(threshBuf[i])
		ratio := float64(ratioBuf[i])
		if ratio < 1 {
			ratio = 1
		}
		gainDB := 0.0
		if envDB > threshold {
			gainDB = (threshold - envDB) * (1 - 1/ratio)
		}
		gain := math.Pow(10, gainDB/20)
		y := float64(x) * gain
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}
		out[i] = float32(y)
	}
}

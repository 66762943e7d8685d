// dsp_filter.go - biquad (RBJ cookbook), SVF (topology-preserving transform)
// and one-pole filters.
//
// Grounded on original_source/src/nodes/svf.rs (the TPT/Zavalishin SVF
// form: g, k coefficients, ic1eq/ic2eq integrator state) for the SVF node,
// and original_source/src/nodes/one_pole_filter.rs's exp(-2*pi*fc/sr)
// coefficient for OnePole. Biquad coefficients follow the well-known RBJ
// "Audio EQ Cookbook" formulas (a standard reference, not a pack library -
// no third-party biquad package appears anywhere in the retrieval pack).

package phonon

import "math"

// BiquadType selects which RBJ cookbook filter a Biquad computes.
type BiquadType int

const (
	BiquadLowpass BiquadType = iota
	BiquadHighpass
	BiquadBandpass
	BiquadNotch
	BiquadPeak
	BiquadLowShelf
	BiquadHighShelf
)

// Biquad is a direct form I biquad filter. Coefficients are recomputed
// once per block from the first sample of Cutoff/Q/Gain (a documented
// simplification: true per-sample coefficient recomputation is far more
// expensive and audibly indistinguishable for the control-rate modulation
// speeds this engine targets).
type Biquad struct {
	name           string
	kind           BiquadType
	Input          SignalRef
	Cutoff         SignalRef
	Q              SignalRef
	GainDB         SignalRef
	x1, x2, y1, y2 float64
}

// NewBiquad builds a biquad of the given kind.
func NewBiquad(name string, kind BiquadType, input, cutoff, q, gainDB SignalRef) *Biquad {
	return &Biquad{name: name, kind: kind, Input: input, Cutoff: cutoff, Q: q, GainDB: gainDB}
}

func (b *Biquad) Name() string        { return b.name }
func (b *Biquad) Inputs() []SignalRef { return []SignalRef{b.Input, b.Cutoff, b.Q, b.GainDB} }
func (b *Biquad) ProvidesDelay() bool { return false }
func (b *Biquad) Channels() int       { return 1 }

func (b *Biquad) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, cutoffBuf, qBuf, gainBuf := inputs[0], inputs[1], inputs[2], inputs[3]
	sr := float64(ctx.SampleRate)
	cutoff := clamp(float64(cutoffBuf[0]), 20, 0.49*sr)
	q := clamp(float64(qBuf[0]), 0.1, 20)
	gainDB := float64(gainBuf[0])
	b0, b1, b2, a0, a1, a2 := rbjCoefficients(b.kind, cutoff, sr, q, gainDB)

	for i, x0 := range in {
		y0 := (b0/a0)*float64(x0) + (b1/a0)*b.x1 + (b2/a0)*b.x2 - (a1/a0)*b.y1 - (a2/a0)*b.y2
		if math.IsNaN(y0) || math.IsInf(y0, 0) {
			y0 = 0
		}
		b.x2, b.x1 = b.x1, float64(x0)
		b.y2, b.y1 = b.y1, y0
		out[i] = float32(y0)
	}
}

// clamp restricts v to [lo, hi], per spec.md §4.5: "Parameters outside
// documented ranges are clamped, never rejected."
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func rbjCoefficients(kind BiquadType, cutoff, sr, q, gainDB float64) (b0, b1, b2, a0, a1, a2 float64) {
	if cutoff <= 0 {
		cutoff = 1
	}
	if cutoff > sr/2-1 {
		cutoff = sr/2 - 1
	}
	w0 := 2 * math.Pi * cutoff / sr
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * q)
	A := math.Pow(10, gainDB/40)

	switch kind {
	case BiquadLowpass:
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case BiquadHighpass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case BiquadBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case BiquadNotch:
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case BiquadPeak:
		b0 = 1 + alpha*A
		b1 = -2 * cosw0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosw0
		a2 = 1 - alpha/A
	case BiquadLowShelf:
		sqrtA := math.Sqrt(A)
		b0 = A * ((A + 1) - (A-1)*cosw0 + 2*sqrtA*alpha)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - 2*sqrtA*alpha)
		a0 = (A + 1) + (A-1)*cosw0 + 2*sqrtA*alpha
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - 2*sqrtA*alpha
	case BiquadHighShelf:
		sqrtA := math.Sqrt(A)
		b0 = A * ((A + 1) + (A-1)*cosw0 + 2*sqrtA*alpha)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - 2*sqrtA*alpha)
		a0 = (A + 1) - (A-1)*cosw0 + 2*sqrtA*alpha
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - 2*sqrtA*alpha
	}
	return
}

// SVFMode selects which tap of the topology-preserving-transform state
// variable filter an SVF node exposes.
type SVFMode int

const (
	SVFLowpass SVFMode = iota
	SVFBandpass
	SVFHighpass
)

// SVF is a Zavalishin-style trapezoidal-integrator state variable filter.
// Each SVF node owns an independent copy of the integrator state; stacking
// Lowpass/Bandpass/Highpass taps of the "same" filter means constructing
// three SVF nodes with identical Cutoff/Resonance refs (a documented
// simplification relative to the Rust original, which computes all three
// taps from one shared integrator pair per sample).
type SVF struct {
	name             string
	mode             SVFMode
	Input            SignalRef
	Cutoff           SignalRef
	Resonance        SignalRef
	ic1eq, ic2eq     float64
}

// NewSVF builds an SVF node for the given tap.
func NewSVF(name string, mode SVFMode, input, cutoff, resonance SignalRef) *SVF {
	return &SVF{name: name, mode: mode, Input: input, Cutoff: cutoff, Resonance: resonance}
}

func (f *SVF) Name() string        { return f.name }
func (f *SVF) Inputs() []SignalRef { return []SignalRef{f.Input, f.Cutoff, f.Resonance} }
func (f *SVF) ProvidesDelay() bool { return false }
func (f *SVF) Channels() int       { return 1 }

func (f *SVF) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, cutoffBuf, resBuf := inputs[0], inputs[1], inputs[2]
	sr := float64(ctx.SampleRate)
	cutoff := float64(cutoffBuf[0])
	if cutoff <= 0 {
		cutoff = 1
	}
	res := float64(resBuf[0])
	g := math.Tan(math.Pi * cutoff / sr)
	k := 2 - 2*res // res in [0,1): 0 = no resonance, approaching 1 = self-oscillation
	if k < 1e-4 {
		k = 1e-4
	}
	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	for i, x0 := range in {
		v3 := float64(x0) - f.ic2eq
		v1 := a1*f.ic1eq + a2*v3
		v2 := f.ic2eq + a2*f.ic1eq + a3*v3
		f.ic1eq = 2*v1 - f.ic1eq
		f.ic2eq = 2*v2 - f.ic2eq

		var y float64
		switch f.mode {
		case SVFLowpass:
			y = v2
		case SVFBandpass:
			y = v1
		case SVFHighpass:
			y = float64(x0) - k*v1 - v2
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}
		out[i] = float32(y)
	}
}

// OnePole is a one-pole lowpass with coefficient exp(-2*pi*fc/sr), matching
// original_source/src/nodes/one_pole_filter.rs exactly.
type OnePole struct {
	name   string
	Input  SignalRef
	Cutoff SignalRef
	state  float64
}

func NewOnePole(name string, input, cutoff SignalRef) *OnePole {
	return &OnePole{name: name, Input: input, Cutoff: cutoff}
}

func (o *OnePole) Name() string        { return o.name }
func (o *OnePole) Inputs() []SignalRef { return []SignalRef{o.Input, o.Cutoff} }
func (o *OnePole) ProvidesDelay() bool { return false }
func (o *OnePole) Channels() int       { return 1 }

func (o *OnePole) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, cutoffBuf := inputs[0], inputs[1]
	sr := float64(ctx.SampleRate)
	cutoff := float64(cutoffBuf[0])
	if cutoff <= 0 {
		cutoff = 1
	}
	a := math.Exp(-2 * math.Pi * cutoff / sr)
	for i, x0 := range in {
		y := (1-a)*float64(x0) + a*o.state
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}
		o.state = y
		out[i] = float32(y)
	}
}

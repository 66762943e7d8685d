// dsp_oscillator.go - band-naive phase-accumulator oscillators.
//
// Grounded on the teacher's audio_chip.go generateSample phase-accumulator
// loop (a running phase advanced by frequency/sampleRate each sample,
// wrapped into [0,1)) generalised from 4 fixed voices to any number of
// oscillator nodes in the graph.

package phonon

import "math"

// WaveShape selects an oscillator's waveform.
type WaveShape int

const (
	WaveSine WaveShape = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// Oscillator is a single-channel, phase-continuous audio-rate oscillator.
// Phase is interior-mutable state carried across blocks.
type Oscillator struct {
	name      string
	shape     WaveShape
	Frequency SignalRef
	phase     float64
}

// NewOscillator builds an oscillator reading frequency (Hz) from freq.
func NewOscillator(name string, shape WaveShape, freq SignalRef) *Oscillator {
	return &Oscillator{name: name, shape: shape, Frequency: freq}
}

func (o *Oscillator) Name() string        { return o.name }
func (o *Oscillator) Inputs() []SignalRef { return []SignalRef{o.Frequency} }
func (o *Oscillator) ProvidesDelay() bool { return false }
func (o *Oscillator) Channels() int       { return 1 }

func (o *Oscillator) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	freq := inputs[0]
	sr := float64(ctx.SampleRate)
	for i := range out {
		out[i] = float32(waveAt(o.shape, o.phase))
		o.phase += float64(freq[i]) / sr
		o.phase -= math.Floor(o.phase)
	}
}

func waveAt(shape WaveShape, phase float64) float64 {
	p := phase - math.Floor(phase)
	switch shape {
	case WaveSine:
		return math.Sin(2 * math.Pi * p)
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		return 2*p - 1
	case WaveTriangle:
		return 4*math.Abs(p-0.5) - 1
	default:
		return 0
	}
}

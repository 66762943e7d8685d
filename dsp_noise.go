// dsp_noise.go - White/Pink/Brown/fBM noise generators.
//
// Grounded on spec.md §4.5's noise node family and original_source's noise
// node semantics; the PRNG itself is a plain xorshift64 (no dependency in
// the retrieval pack provides a deterministic, per-instance PRNG suited to
// a single audio-rate generator - math/rand's global source isn't safe to
// share across concurrent nodes, and a local xorshift is both simpler and
// faster than wrapping *rand.Rand here, matching the teacher's preference
// for small hand-rolled numeric helpers over heavier stdlib machinery
// elsewhere in audio_chip.go, e.g. its own LUT-based wave tables).

package phonon

// xorshift64 is a minimal, fast, deterministic PRNG seeded per node so
// that two noise nodes with the same seed render identically.
type xorshift64 struct{ state uint64 }

func newXorshift64(seed uint64) *xorshift64 {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &xorshift64{state: seed}
}

func (x *xorshift64) next() uint64 {
	x.state ^= x.state << 13
	x.state ^= x.state >> 7
	x.state ^= x.state << 17
	return x.state
}

// unit returns a pseudo-random float64 uniformly in [-1,1).
func (x *xorshift64) unit() float64 {
	return float64(x.next()>>11)/(1<<53)*2 - 1
}

// WhiteNoise emits uncorrelated uniform samples in [-1,1).
type WhiteNoise struct {
	name string
	rng  *xorshift64
}

func NewWhiteNoise(name string, seed uint64) *WhiteNoise {
	return &WhiteNoise{name: name, rng: newXorshift64(seed)}
}

func (n *WhiteNoise) Name() string        { return n.name }
func (n *WhiteNoise) Inputs() []SignalRef { return nil }
func (n *WhiteNoise) ProvidesDelay() bool { return false }
func (n *WhiteNoise) Channels() int       { return 1 }

func (n *WhiteNoise) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	for i := range out {
		out[i] = float32(n.rng.unit())
	}
}

// PinkNoise approximates a -3dB/octave spectrum using Paul Kellet's
// refined multi-pole filter, the standard economical pink-noise recipe
// (no library in the pack implements this; the formula, not a dependency,
// is what's being reused here).
type PinkNoise struct {
	name                       string
	rng                        *xorshift64
	b0, b1, b2, b3, b4, b5, b6 float64
}

func NewPinkNoise(name string, seed uint64) *PinkNoise {
	return &PinkNoise{name: name, rng: newXorshift64(seed)}
}

func (n *PinkNoise) Name() string        { return n.name }
func (n *PinkNoise) Inputs() []SignalRef { return nil }
func (n *PinkNoise) ProvidesDelay() bool { return false }
func (n *PinkNoise) Channels() int       { return 1 }

func (n *PinkNoise) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	for i := range out {
		white := n.rng.unit()
		n.b0 = 0.99886*n.b0 + white*0.0555179
		n.b1 = 0.99332*n.b1 + white*0.0750759
		n.b2 = 0.96900*n.b2 + white*0.1538520
		n.b3 = 0.86650*n.b3 + white*0.3104856
		n.b4 = 0.55000*n.b4 + white*0.5329522
		n.b5 = -0.7616*n.b5 - white*0.0168980
		pink := n.b0 + n.b1 + n.b2 + n.b3 + n.b4 + n.b5 + n.b6 + white*0.5362
		n.b6 = white * 0.115926
		out[i] = float32(pink * 0.11)
	}
}

// BrownNoise integrates white noise with a leaky integrator, giving a
// -6dB/octave spectrum.
type BrownNoise struct {
	name  string
	rng   *xorshift64
	level float64
}

func NewBrownNoise(name string, seed uint64) *BrownNoise {
	return &BrownNoise{name: name, rng: newXorshift64(seed)}
}

func (n *BrownNoise) Name() string        { return n.name }
func (n *BrownNoise) Inputs() []SignalRef { return nil }
func (n *BrownNoise) ProvidesDelay() bool { return false }
func (n *BrownNoise) Channels() int       { return 1 }

func (n *BrownNoise) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	const leak = 0.02
	for i := range out {
		white := n.rng.unit()
		n.level = (1-leak)*n.level + leak*white
		out[i] = float32(clampUnit(n.level * 3.5))
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// FBMNoise approximates fractional Brownian motion by summing several
// octaves of held-and-interpolated random values at halving rates, the
// same layered-octave idea as a Perlin-noise generator but built from
// held random steps rather than gradient noise (adequate for a modulation
// source; true fBM's fractional-difference construction is not needed
// here).
type FBMNoise struct {
	name        string
	octaves     int
	persistence float64
	rng         *xorshift64
	phase       []float64
	current     []float64
	target      []float64
}

func NewFBMNoise(name string, seed uint64, octaves int, persistence float64) *FBMNoise {
	if octaves < 1 {
		octaves = 1
	}
	rng := newXorshift64(seed)
	phase := make([]float64, octaves)
	current := make([]float64, octaves)
	target := make([]float64, octaves)
	for o := range current {
		current[o] = rng.unit()
		target[o] = rng.unit()
	}
	return &FBMNoise{name: name, octaves: octaves, persistence: persistence, rng: rng, phase: phase, current: current, target: target}
}

func (n *FBMNoise) Name() string        { return n.name }
func (n *FBMNoise) Inputs() []SignalRef { return nil }
func (n *FBMNoise) ProvidesDelay() bool { return false }
func (n *FBMNoise) Channels() int       { return 1 }

func (n *FBMNoise) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	sr := float64(ctx.SampleRate)
	for i := range out {
		sum := 0.0
		amp := 1.0
		total := 0.0
		for o := 0; o < n.octaves; o++ {
			rate := 2.0 / (float64(uint64(1)<<uint(o)) * sr * 0.02)
			n.phase[o] += rate
			if n.phase[o] >= 1 {
				n.phase[o] -= 1
				n.current[o] = n.target[o]
				n.target[o] = n.rng.unit()
			}
			v := n.current[o] + (n.target[o]-n.current[o])*n.phase[o]
			sum += v * amp
			total += amp
			amp *= n.persistence
		}
		if total > 0 {
			sum /= total
		}
		out[i] = float32(sum)
	}
}

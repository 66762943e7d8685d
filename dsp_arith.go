// dsp_arith.go - the small arithmetic node family: Add, Multiply, Scale,
// Wrap, Clamp, and the terminal Output node.
//
// Grounded on spec.md §4.5's arithmetic node list; these are simple enough
// that no pack library applies (there is no "signal arithmetic" library in
// the retrieval pack - each node is a handful of per-sample float ops,
// matching the teacher's own inline arithmetic in generateSample rather
// than anything worth a dependency).

package phonon

// Add sums any number of audio-rate inputs.
type Add struct {
	name    string
	Inputs_ []SignalRef
}

func NewAdd(name string, inputs ...SignalRef) *Add { return &Add{name: name, Inputs_: inputs} }

func (a *Add) Name() string        { return a.name }
func (a *Add) Inputs() []SignalRef { return a.Inputs_ }
func (a *Add) ProvidesDelay() bool { return false }
func (a *Add) Channels() int       { return 1 }

func (a *Add) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	for i := range out {
		sum := float32(0)
		for _, in := range inputs {
			sum += in[i]
		}
		out[i] = sum
	}
}

// Multiply multiplies two audio-rate inputs sample by sample (ring
// modulation when both operands are audio-rate oscillators).
type Multiply struct {
	name string
	A, B SignalRef
}

func NewMultiply(name string, a, b SignalRef) *Multiply { return &Multiply{name: name, A: a, B: b} }

func (m *Multiply) Name() string        { return m.name }
func (m *Multiply) Inputs() []SignalRef { return []SignalRef{m.A, m.B} }
func (m *Multiply) ProvidesDelay() bool { return false }
func (m *Multiply) Channels() int       { return 1 }

func (m *Multiply) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	a, b := inputs[0], inputs[1]
	for i := range out {
		out[i] = a[i] * b[i]
	}
}

// Scale applies a control-rate gain to an audio-rate input.
type Scale struct {
	name  string
	Input SignalRef
	Gain  SignalRef
}

func NewScale(name string, input, gain SignalRef) *Scale { return &Scale{name: name, Input: input, Gain: gain} }

func (s *Scale) Name() string        { return s.name }
func (s *Scale) Inputs() []SignalRef { return []SignalRef{s.Input, s.Gain} }
func (s *Scale) ProvidesDelay() bool { return false }
func (s *Scale) Channels() int       { return 1 }

func (s *Scale) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, gain := inputs[0], inputs[1]
	for i := range out {
		out[i] = in[i] * gain[i]
	}
}

// Wrap folds Input into [Low,High) via modular arithmetic, useful for
// hard aliasing/waveshaping effects.
type Wrap struct {
	name      string
	Input     SignalRef
	Low, High SignalRef
}

func NewWrap(name string, input, low, high SignalRef) *Wrap {
	return &Wrap{name: name, Input: input, Low: low, High: high}
}

func (w *Wrap) Name() string        { return w.name }
func (w *Wrap) Inputs() []SignalRef { return []SignalRef{w.Input, w.Low, w.High} }
func (w *Wrap) ProvidesDelay() bool { return false }
func (w *Wrap) Channels() int       { return 1 }

func (w *Wrap) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, lowBuf, highBuf := inputs[0], inputs[1], inputs[2]
	for i, x := range in {
		lo, hi := float64(lowBuf[i]), float64(highBuf[i])
		span := hi - lo
		if span <= 0 {
			out[i] = x
			continue
		}
		v := float64(x)
		v = v - lo
		v = v - span*floorDiv(v, span)
		out[i] = float32(v + lo)
	}
}

func floorDiv(v, span float64) float64 {
	q := v / span
	return qFloor(q)
}

func qFloor(q float64) float64 {
	if q >= 0 {
		return float64(int64(q))
	}
	i := float64(int64(q))
	if i != q {
		i--
	}
	return i
}

// Clamp hard-limits Input to [Low,High].
type Clamp struct {
	name      string
	Input     SignalRef
	Low, High SignalRef
}

func NewClamp(name string, input, low, high SignalRef) *Clamp {
	return &Clamp{name: name, Input: input, Low: low, High: high}
}

func (c *Clamp) Name() string        { return c.name }
func (c *Clamp) Inputs() []SignalRef { return []SignalRef{c.Input, c.Low, c.High} }
func (c *Clamp) ProvidesDelay() bool { return false }
func (c *Clamp) Channels() int       { return 1 }

func (c *Clamp) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in, lowBuf, highBuf := inputs[0], inputs[1], inputs[2]
	for i, x := range in {
		lo, hi := lowBuf[i], highBuf[i]
		switch {
		case x < lo:
			out[i] = lo
		case x > hi:
			out[i] = hi
		default:
			out[i] = x
		}
	}
}

// MixMode names how an Output should fold its input to stereo. Output stores
// its Mode but does not read it: folding depends only on the input's channel
// count (two channels pass through, one is duplicated, more are averaged).
type MixMode int

const (
	MixStereo MixMode = iota
	MixMonoSum
)

// Output is the graph's terminal node: it is never anyone's input, and the
// engine reads its rendered buffer directly each block.
type Output struct {
	name       string
	Input      SignalRef
	inputChans int
	Mode       MixMode
}

// NewOutput builds the terminal node. inputChans must match Input's
// producing node's Channels().
func NewOutput(name string, input SignalRef, inputChans int, mode MixMode) *Output {
	return &Output{name: name, Input: input, inputChans: inputChans, Mode: mode}
}

func (o *Output) Name() string        { return o.name }
func (o *Output) Inputs() []SignalRef { return []SignalRef{o.Input} }
func (o *Output) ProvidesDelay() bool { return false }
func (o *Output) Channels() int       { return 2 }

func (o *Output) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	in := inputs[0]
	switch {
	case o.inputChans == 2:
		copy(out, in)
	case o.inputChans == 1:
		for i := 0; i < ctx.BlockSize; i++ {
			out[i*2] = in[i]
			out[i*2+1] = in[i]
		}
	default:
		for i := 0; i < ctx.BlockSize; i++ {
			sum := float32(0)
			for ch := 0; ch < o.inputChans; ch++ {
				sum += in[i*o.inputChans+ch]
			}
			avg := sum / float32(o.inputChans)
			out[i*2] = avg
			out[i*2+1] = avg
		}
	}
}

// rational.go - exact rational time arithmetic for the pattern engine
//
// Cycle position is represented as a reduced int64 fraction so that
// combinators which repeatedly divide time (fast, slow, iter, bite, ...)
// never accumulate floating-point drift across long-running sessions.

package phonon

import "fmt"

// Frac is a reduced fraction num/den with den > 0. The zero value is 0/1.
type Frac struct {
	num int64
	den int64
}

// NewFrac builds a reduced fraction. A zero denominator reduces to 0/1.
func NewFrac(num, den int64) Frac {
	if den == 0 {
		return Frac{0, 1}
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd64(abs64(num), den)
	if g == 0 {
		g = 1
	}
	return Frac{num / g, den / g}
}

// FracFromInt builds a whole-number fraction.
func FracFromInt(n int64) Frac { return Frac{n, 1} }

// FracFromFloat approximates f as num/1_000_000, then reduces. This matches
// spec.md §4.1's accepted span-boundary conversion: lossy, but adequate for
// boundaries derived from floating-point query windows.
func FracFromFloat(f float64) Frac {
	const scale = 1_000_000
	return NewFrac(int64(f*scale+signOf(f)*0.5), scale)
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Add returns f+g.
func (f Frac) Add(g Frac) Frac {
	return NewFrac(f.num*g.den+g.num*f.den, f.den*g.den)
}

// Sub returns f-g.
func (f Frac) Sub(g Frac) Frac {
	return NewFrac(f.num*g.den-g.num*f.den, f.den*g.den)
}

// Mul returns f*g.
func (f Frac) Mul(g Frac) Frac {
	return NewFrac(f.num*g.num, f.den*g.den)
}

// Div returns f/g. Dividing by zero returns 0/1.
func (f Frac) Div(g Frac) Frac {
	if g.num == 0 {
		return Frac{0, 1}
	}
	return NewFrac(f.num*g.den, f.den*g.num)
}

// Neg returns -f.
func (f Frac) Neg() Frac { return Frac{-f.num, f.den} }

// Cmp returns -1, 0, or 1 comparing f to g, via plain int64
// cross-multiplication with no wider promotion (minutes of audio at 44.1kHz
// cycle resolution never approach int64 limits, and every Frac is kept
// reduced).
func (f Frac) Cmp(g Frac) int {
	lhs := f.num * g.den
	rhs := g.num * f.den
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

func (f Frac) Less(g Frac) bool    { return f.Cmp(g) < 0 }
func (f Frac) LessEq(g Frac) bool  { return f.Cmp(g) <= 0 }
func (f Frac) Greater(g Frac) bool { return f.Cmp(g) > 0 }
func (f Frac) Eq(g Frac) bool      { return f.Cmp(g) == 0 }

// Float returns the lossy float64 value of f.
func (f Frac) Float() float64 { return float64(f.num) / float64(f.den) }

// Floor returns the greatest integer <= f, as a Frac. den is always > 0
// (NewFrac normalises the sign onto num), so only num's sign matters here.
func (f Frac) Floor() Frac {
	q := f.num / f.den
	if f.num%f.den != 0 && f.num < 0 {
		q--
	}
	return Frac{q, 1}
}

// FloorInt returns Floor as an int64.
func (f Frac) FloorInt() int64 { return f.Floor().num }

func (f Frac) String() string { return fmt.Sprintf("%d/%d", f.num, f.den) }

// TimeSpan is a half-open interval [Begin, End) over rational cycle time.
type TimeSpan struct {
	Begin Frac
	End   Frac
}

// NewTimeSpan builds a span. It does not reject End <= Begin; Duration and
// Intersection treat such spans as empty.
func NewTimeSpan(begin, end Frac) TimeSpan { return TimeSpan{begin, end} }

// Duration returns End - Begin (zero or negative for an empty span).
func (s TimeSpan) Duration() Frac { return s.End.Sub(s.Begin) }

// Empty reports whether the span has no extent.
func (s TimeSpan) Empty() bool { return !s.Begin.Less(s.End) }

// Intersection returns the overlapping portion of s and o, and whether any
// overlap exists.
func (s TimeSpan) Intersection(o TimeSpan) (TimeSpan, bool) {
	begin := s.Begin
	if o.Begin.Greater(begin) {
		begin = o.Begin
	}
	end := s.End
	if o.End.Less(end) {
		end = o.End
	}
	result := TimeSpan{begin, end}
	if result.Empty() {
		return TimeSpan{}, false
	}
	return result, true
}

// CyclesInSpan returns the integer cycle boundaries strictly inside s.
func (s TimeSpan) CyclesInSpan() []int64 {
	var cycles []int64
	start := s.Begin.Floor().num + 1
	for c := start; FracFromInt(c).Less(s.End); c++ {
		if FracFromInt(c).Greater(s.Begin) {
			cycles = append(cycles, c)
		}
	}
	return cycles
}

// SpanCycles splits s at every integer cycle boundary it crosses, returning
// one sub-span per cycle. Used by combinators that must evaluate a
// per-cycle function (e.g. a pattern sampled as a value at cycle start)
// across a query window spanning multiple cycles.
func (s TimeSpan) SpanCycles() []TimeSpan {
	if s.Empty() {
		return nil
	}
	var spans []TimeSpan
	begin := s.Begin
	for begin.Less(s.End) {
		nextCycle := begin.Floor().Add(FracFromInt(1))
		end := s.End
		if nextCycle.Less(end) {
			end = nextCycle
		}
		spans = append(spans, TimeSpan{begin, end})
		begin = end
	}
	return spans
}

// MapLinear maps point t, expressed as a fraction of src's extent, onto the
// corresponding fraction of dst's extent.
func MapLinear(src, dst TimeSpan, t Frac) Frac {
	srcDur := src.Duration()
	if srcDur.num == 0 {
		return dst.Begin
	}
	rel := t.Sub(src.Begin).Div(srcDur)
	return dst.Begin.Add(rel.Mul(dst.Duration()))
}

// WithTime returns a copy of s with both endpoints passed through f.
func (s TimeSpan) WithTime(f func(Frac) Frac) TimeSpan {
	return TimeSpan{f(s.Begin), f(s.End)}
}

// State is the query context passed to Pattern.Query: a span plus a small
// keyed mapping of controls reserved for future extensions.
type State struct {
	Span     TimeSpan
	Controls map[string]float64
}

// WithSpan returns a copy of the state with a different span.
func (st State) WithSpan(span TimeSpan) State {
	return State{Span: span, Controls: st.Controls}
}

// pattern.go - the pattern algebra core: a lazily-queried time -> events
// function, generic over its event payload type.
//
// A Pattern is not a container. It wraps a pure closure; combinators wrap
// that closure again. Nothing is pre-materialised until Query is called
// for a specific span, and two calls with the same span must return the
// same haps (determinism rule, spec.md §4.2).

package phonon

import "sort"

// Hap is a single scheduled pattern event. Whole is the event's full
// logical span (nil if unbounded/continuous); Part is the portion visible
// inside the span that was queried.
type Hap[V any] struct {
	Whole *TimeSpan
	Part  TimeSpan
	Value V
}

// HasOnset reports whether Part begins at the same instant as Whole - i.e.
// this hap's onset, rather than a continuation fragment of a straddling
// event, is visible in this query.
func (h Hap[V]) HasOnset() bool {
	return h.Whole != nil && h.Whole.Begin.Eq(h.Part.Begin)
}

// WithSpans returns a copy of h with both Whole and Part passed through f.
func (h Hap[V]) WithSpans(f func(TimeSpan) TimeSpan) Hap[V] {
	out := h
	out.Part = f(h.Part)
	if h.Whole != nil {
		w := f(*h.Whole)
		out.Whole = &w
	}
	return out
}

// Pattern is a cheaply cloneable reference to a pure query function.
// Cloning a Pattern value copies only the function pointer/closure, never
// any materialised events.
type Pattern[V any] struct {
	query func(State) []Hap[V]
}

// NewPattern wraps a query function as a Pattern.
func NewPattern[V any](query func(State) []Hap[V]) Pattern[V] {
	return Pattern[V]{query: query}
}

// Query evaluates the pattern for the given state, sorting results by
// Part.Begin per the core contract (spec.md §4.2).
func (p Pattern[V]) Query(st State) []Hap[V] {
	if p.query == nil {
		return nil
	}
	haps := p.query(st)
	sort.SliceStable(haps, func(i, j int) bool {
		return haps[i].Part.Begin.Less(haps[j].Part.Begin)
	})
	return haps
}

// Silence returns a pattern that never produces any haps.
func Silence[V any]() Pattern[V] {
	return NewPattern(func(State) []Hap[V] { return nil })
}

// Pure returns a pattern with one hap per integer cycle, whole = [n, n+1).
func Pure[V any](v V) Pattern[V] {
	return NewPattern(func(st State) []Hap[V] {
		var out []Hap[V]
		for _, span := range st.Span.SpanCycles() {
			cycle := span.Begin.Floor()
			whole := TimeSpan{cycle, cycle.Add(FracFromInt(1))}
			part, ok := whole.Intersection(span)
			if !ok {
				continue
			}
			out = append(out, Hap[V]{Whole: &whole, Part: part, Value: v})
		}
		return out
	})
}

// FromSeq divides each cycle equally among the given values, one hap per
// slot per cycle.
func FromSeq[V any](values []V) Pattern[V] {
	n := len(values)
	if n == 0 {
		return Silence[V]()
	}
	return NewPattern(func(st State) []Hap[V] {
		var out []Hap[V]
		for _, span := range st.Span.SpanCycles() {
			cycle := span.Begin.Floor()
			step := NewFrac(1, int64(n))
			for i := 0; i < n; i++ {
				begin := cycle.Add(step.Mul(FracFromInt(int64(i))))
				end := cycle.Add(step.Mul(FracFromInt(int64(i + 1))))
				whole := TimeSpan{begin, end}
				part, ok := whole.Intersection(span)
				if !ok {
					continue
				}
				out = append(out, Hap[V]{Whole: &whole, Part: part, Value: values[i]})
			}
		}
		return out
	})
}

// queryAt is a convenience for combinators that need to query a pattern
// against a single replacement span while keeping the rest of the state.
func queryAt[V any](p Pattern[V], st State, span TimeSpan) []Hap[V] {
	return p.Query(st.WithSpan(span))
}

// withQueryTime returns a pattern that maps the incoming span through
// queryFn before delegating to p, and maps each resulting hap's spans back
// through hapFn. This is the shared shape behind fast/slow/rev/iter/etc.
func withQueryTime[V any](p Pattern[V], queryFn func(TimeSpan) TimeSpan, hapFn func(TimeSpan) TimeSpan) Pattern[V] {
	return NewPattern(func(st State) []Hap[V] {
		haps := p.Query(st.WithSpan(queryFn(st.Span)))
		out := make([]Hap[V], len(haps))
		for i, h := range haps {
			out[i] = h.WithSpans(hapFn)
		}
		return out
	})
}

// pattern_mininotation.go - a minimal TidalCycles-style mini-notation
// tokenizer/parser: "bd sn hh cp", "~", "bd(3,8)", "[a b]", "<a b>".
//
// This is the parser hook spec.md §4.2 asks for, not a full mini-notation
// implementation - sequences, rests, euclidean groups, brackets for
// subdivision and angle brackets for cycle-alternation are supported since
// they cover every example spec.md and original_source/ give. Grounded on
// original_source/src/pattern_structure.rs's `parse_mini_notation`-shaped
// grammar (informal; the Rust source tokenizes the same four constructs).

package phonon

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMini parses a mini-notation string into a Pattern[string]. A "~"
// token is a rest (produces no hap). Whitespace-separated tokens within a
// group share that group's cycle equally; "[...]" nests a sub-sequence
// into a single slot; "<...>" alternates its contents one per cycle;
// "name(k,n)" applies a euclidean rhythm filter to name's occurrences.
func ParseMini(src string) (Pattern[string], error) {
	toks := tokenizeMini(src)
	p := &miniParser{toks: toks}
	seq, err := p.parseSequence("")
	if err != nil {
		return Silence[string](), err
	}
	if p.pos != len(p.toks) {
		return Silence[string](), fmt.Errorf("mini-notation: unexpected trailing token %q", p.toks[p.pos])
	}
	return seq, nil
}

func tokenizeMini(src string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range src {
		switch {
		case r == '[' || r == ']' || r == '<' || r == '>' || r == '(' || r == ')' || r == ',':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type miniParser struct {
	toks []string
	pos  int
}

func (p *miniParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *miniParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

// parseSequence reads tokens up to a closing bracket (or end of input) and
// divides the cycle equally among the resulting steps via TimeCat.
func (p *miniParser) parseSequence(closing string) (Pattern[string], error) {
	var specs []WeightedPattern[string]
	for {
		tok := p.peek()
		if tok == "" || tok == closing {
			break
		}
		step, err := p.parseStep()
		if err != nil {
			return Silence[string](), err
		}
		specs = append(specs, WeightedPattern[string]{Weight: 1, Pattern: step})
	}
	if len(specs) == 0 {
		return Silence[string](), nil
	}
	if len(specs) == 1 {
		return specs[0].Pattern, nil
	}
	return TimeCat(specs...), nil
}

func (p *miniParser) parseStep() (Pattern[string], error) {
	tok := p.next()
	var base Pattern[string]
	switch tok {
	case "[":
		inner, err := p.parseSequence("]")
		if err != nil {
			return Silence[string](), err
		}
		if p.next() != "]" {
			return Silence[string](), fmt.Errorf("mini-notation: expected ']'")
		}
		base = inner
	case "<":
		var alts []Pattern[string]
		for p.peek() != ">" && p.peek() != "" {
			a, err := p.parseStep()
			if err != nil {
				return Silence[string](), err
			}
			alts = append(alts, a)
		}
		if p.next() != ">" {
			return Silence[string](), fmt.Errorf("mini-notation: expected '>'")
		}
		base = Cat(alts...)
	case "~":
		base = Silence[string]()
	case "":
		return Silence[string](), fmt.Errorf("mini-notation: unexpected end of input")
	case "]", ">", ")", ",":
		return Silence[string](), fmt.Errorf("mini-notation: unexpected %q", tok)
	default:
		base = Pure(tok)
	}

	if p.peek() == "(" {
		p.next()
		k, err := p.parseInt()
		if err != nil {
			return Silence[string](), err
		}
		if p.next() != "," {
			return Silence[string](), fmt.Errorf("mini-notation: expected ',' in euclid group")
		}
		n, err := p.parseInt()
		if err != nil {
			return Silence[string](), err
		}
		if p.next() != ")" {
			return Silence[string](), fmt.Errorf("mini-notation: expected ')'")
		}
		base = euclidApply(base, k, n)
	}
	return base, nil
}

func (p *miniParser) parseInt() (int, error) {
	tok := p.next()
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("mini-notation: expected integer, got %q", tok)
	}
	return n, nil
}

// euclidApply restricts base (typically a single-word Pure pattern) to the
// onsets selected by a k-of-n Bjorklund rhythm.
func euclidApply(base Pattern[string], k, n int) Pattern[string] {
	pulses := Bjorklund(k, n)
	return NewPattern(func(st State) []Hap[string] {
		var out []Hap[string]
		if n == 0 {
			return nil
		}
		for _, cycleSpan := range st.Span.SpanCycles() {
			cycle := cycleSpan.Begin.Floor()
			step := NewFrac(1, int64(n))
			for i, on := range pulses {
				if !on {
					continue
				}
				slotBegin := cycle.Add(step.Mul(FracFromInt(int64(i))))
				slotEnd := slotBegin.Add(step)
				slotSpan := TimeSpan{slotBegin, slotEnd}
				visible, ok := slotSpan.Intersection(cycleSpan)
				if !ok {
					continue
				}
				haps := base.Query(st.WithSpan(TimeSpan{cycle, cycle.Add(FracFromInt(1))}))
				for _, h := range haps {
					if !h.HasOnset() {
						continue
					}
					whole := slotSpan
					out = append(out, Hap[string]{Whole: &whole, Part: visible, Value: h.Value})
				}
			}
		}
		return out
	})
}

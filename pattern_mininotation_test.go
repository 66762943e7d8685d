// pattern_mininotation_test.go - grammar coverage for ParseMini: sequences,
// rests, brackets, angle-bracket alternation, and euclidean groups.
package phonon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func onsetValues(haps []Hap[string]) []string {
	var out []string
	for _, h := range haps {
		if h.HasOnset() {
			out = append(out, h.Value)
		}
	}
	return out
}

func TestParseMiniSimpleSequenceDividesCycleEqually(t *testing.T) {
	p, err := ParseMini("bd sn")
	assert.NoError(t, err)

	haps := querySpan(p, 0, 1)
	assert.ElementsMatch(t, []string{"bd", "sn"}, onsetValues(haps))

	for _, h := range haps {
		if h.Value == "bd" {
			assert.Equal(t, 0.0, h.Part.Begin.Float())
			assert.Equal(t, 0.5, h.Part.End.Float())
		}
		if h.Value == "sn" {
			assert.Equal(t, 0.5, h.Part.Begin.Float())
			assert.Equal(t, 1.0, h.Part.End.Float())
		}
	}
}

func TestParseMiniRestProducesNoHap(t *testing.T) {
	p, err := ParseMini("bd ~ sn")
	assert.NoError(t, err)

	haps := querySpan(p, 0, 1)
	assert.Equal(t, []string{"bd", "sn"}, onsetValues(haps), "a rest step contributes no hap but still occupies its slot")
}

func TestParseMiniEmptyProducesSilence(t *testing.T) {
	p, err := ParseMini("")
	assert.NoError(t, err)
	assert.Empty(t, querySpan(p, 0, 4))
}

func TestParseMiniBracketNestsSubsequence(t *testing.T) {
	p, err := ParseMini("bd [sn sn]")
	assert.NoError(t, err)

	haps := querySpan(p, 0, 1)
	assert.Equal(t, []string{"bd", "sn", "sn"}, onsetValues(haps))

	var bdPart, firstSn, secondSn TimeSpan
	for _, h := range haps {
		switch {
		case h.Value == "bd":
			bdPart = h.Part
		case firstSn == (TimeSpan{}) && h.Value == "sn":
			firstSn = h.Part
		default:
			secondSn = h.Part
		}
	}
	assert.Equal(t, 0.0, bdPart.Begin.Float())
	assert.Equal(t, 0.5, bdPart.End.Float())
	assert.Equal(t, 0.5, firstSn.Begin.Float())
	assert.Equal(t, 0.75, firstSn.End.Float())
	assert.Equal(t, 0.75, secondSn.Begin.Float())
	assert.Equal(t, 1.0, secondSn.End.Float())
}

func TestParseMiniAngleBracketAlternatesPerCycle(t *testing.T) {
	p, err := ParseMini("<bd sn>")
	assert.NoError(t, err)

	assert.Equal(t, []string{"bd"}, onsetValues(querySpan(p, 0, 1)))
	assert.Equal(t, []string{"sn"}, onsetValues(querySpan(p, 1, 2)))
	assert.Equal(t, []string{"bd"}, onsetValues(querySpan(p, 2, 3)), "alternation must wrap back around")
}

func TestParseMiniEuclidGroupSelectsPulses(t *testing.T) {
	p, err := ParseMini("bd(3,8)")
	assert.NoError(t, err)

	haps := querySpan(p, 0, 1)
	onsets := 0
	for _, h := range haps {
		if h.HasOnset() {
			onsets++
			assert.Equal(t, "bd", h.Value)
		}
	}

	pulses := Bjorklund(3, 8)
	want := 0
	for _, on := range pulses {
		if on {
			want++
		}
	}
	assert.Equal(t, want, onsets)
}

func TestParseMiniEuclidZeroPulsesProducesNoOnsets(t *testing.T) {
	p, err := ParseMini("bd(0,8)")
	assert.NoError(t, err)
	assert.Empty(t, onsetValues(querySpan(p, 0, 1)))
}

func TestParseMiniErrorsOnUnbalancedBracket(t *testing.T) {
	_, err := ParseMini("[bd sn")
	assert.Error(t, err)
}

func TestParseMiniErrorsOnUnbalancedAngleBracket(t *testing.T) {
	_, err := ParseMini("<bd sn")
	assert.Error(t, err)
}

func TestParseMiniErrorsOnTrailingCloseBracket(t *testing.T) {
	_, err := ParseMini("bd]")
	assert.Error(t, err)
}

func TestParseMiniErrorsOnMalformedEuclidGroup(t *testing.T) {
	_, err := ParseMini("bd(3,x)")
	assert.Error(t, err)
}

func TestParseMiniNestedAngleInsideBracket(t *testing.T) {
	p, err := ParseMini("[bd <sn cp>]")
	assert.NoError(t, err)

	assert.ElementsMatch(t, []string{"bd", "sn"}, onsetValues(querySpan(p, 0, 1)))
	assert.ElementsMatch(t, []string{"bd", "cp"}, onsetValues(querySpan(p, 1, 2)))
}

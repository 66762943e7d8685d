// dsp_sample.go - sample playback nodes: Sample (pattern-selected,
// polyphonic), SamplePlayback (single fixed sample, gate-retriggered), and
// Slice (plays one equal slice of a sample per trigger).
//
// Grounded on spec.md §4.3/§4.5's sample playback section and the
// SPEC_FULL.md §3 resolution of the speed/unit_mode open question
// (UnitRate/UnitHz/UnitSeconds). Voice bookkeeping (a small pool of
// concurrently playing positions summed together) follows the teacher's
// per-channel voice state in audio_chip.go, generalised from 4 fixed
// hardware channels to an unbounded, dynamically spawned voice list.

package phonon

import "math"

// UnitMode selects how a sample playback node's Speed input is interpreted.
type UnitMode int

const (
	UnitRate UnitMode = iota
	UnitHz
	UnitSeconds
)

type sampleVoice struct {
	pcm    *SharedPcm
	pos    float64
	speed  float64
	active bool
}

func (v *sampleVoice) render() float32 {
	if !v.active || v.pcm == nil {
		return 0
	}
	frames := v.pcm.Frames()
	if frames == 0 {
		return 0
	}
	i0 := int(math.Floor(v.pos))
	if i0 >= frames-1 {
		v.active = false
		return 0
	}
	frac := v.pos - float64(i0)
	sum := float32(0)
	n := len(v.pcm.Channels)
	if n == 0 {
		return 0
	}
	for ch := 0; ch < n; ch++ {
		a := v.pcm.At(ch, i0)
		b := v.pcm.At(ch, i0+1)
		sum += a + (b-a)*float32(frac)
	}
	return sum / float32(n)
}

func (v *sampleVoice) advance(step float64) {
	v.pos += step
	if v.pos >= float64(v.pcm.Frames()) {
		v.active = false
	}
}

func resolveSpeed(mode UnitMode, speed float64, pcm *SharedPcm) float64 {
	switch mode {
	case UnitHz:
		base := pcm.BaseFreq
		if base <= 0 {
			base = 261.63
		}
		return speed / base
	case UnitSeconds:
		if speed <= 0 {
			return 1
		}
		durSeconds := float64(pcm.Frames()) / float64(pcm.SampleRate)
		return durSeconds / speed
	default:
		return speed
	}
}

// Sample is triggered by a pattern of sample names: each onset looks up
// the name in bank and spawns a new voice, mixing all concurrently active
// voices into the output (polyphonic - a repeated trigger does not cut off
// the previous playback).
type Sample struct {
	name     string
	bank     *SampleBank
	Trigger  Pattern[string]
	Speed    SignalRef
	Mode     UnitMode
	voices   []sampleVoice
}

func NewSample(name string, bank *SampleBank, trigger Pattern[string], speed SignalRef, mode UnitMode) *Sample {
	return &Sample{name: name, bank: bank, Trigger: trigger, Speed: speed, Mode: mode}
}

func (s *Sample) Name() string        { return s.name }
func (s *Sample) Inputs() []SignalRef { return []SignalRef{s.Speed} }
func (s *Sample) ProvidesDelay() bool { return false }
func (s *Sample) Channels() int       { return 1 }

func (s *Sample) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	speedBuf := inputs[0]
	span := TimeSpan{
		Begin: ctx.Snapshot.Position,
		End:   ctx.Snapshot.Position.Add(FracFromFloat(ctx.Snapshot.Increment * float64(ctx.BlockSize))),
	}
	triggers := s.Trigger.Query(State{Span: span})
	onsetAt := make(map[int]string, len(triggers))
	for _, t := range triggers {
		if !t.HasOnset() {
			continue
		}
		idx := cycleToSampleIndex(t.Part.Begin, ctx)
		if idx >= 0 && idx < ctx.BlockSize {
			onsetAt[idx] = t.Value
		}
	}

	resampleRatio := 1.0

	for i := range out {
		if name, ok := onsetAt[i]; ok {
			if pcm, found := s.bank.Get(name); found {
				speed := resolveSpeed(s.Mode, float64(speedBuf[i]), pcm)
				s.voices = append(s.voices, sampleVoice{pcm: pcm, pos: 0, speed: speed, active: true})
			}
		}

		mix := float32(0)
		live := s.voices[:0]
		for _, v := range s.voices {
			if !v.active {
				continue
			}
			mix += v.render()
			resampleRatio = float64(v.pcm.SampleRate) / float64(ctx.SampleRate)
			v.advance(v.speed * resampleRatio)
			if v.active {
				live = append(live, v)
			}
		}
		s.voices = live
		out[i] = mix
	}
}

// SamplePlayback plays one fixed sample, retriggered from Idle on every
// Gate rising edge; a retrigger while still playing restarts from frame 0
// (monophonic - unlike Sample, it never layers overlapping voices).
type SamplePlayback struct {
	name        string
	pcm         *SharedPcm
	Gate        SignalRef
	Speed       SignalRef
	Mode        UnitMode
	Loop        bool
	pos         float64
	gateWasHigh bool
}

func NewSamplePlayback(name string, pcm *SharedPcm, gate, speed SignalRef, mode UnitMode, loop bool) *SamplePlayback {
	return &SamplePlayback{name: name, pcm: pcm, Gate: gate, Speed: speed, Mode: mode, Loop: loop}
}

func (s *SamplePlayback) Name() string        { return s.name }
func (s *SamplePlayback) Inputs() []SignalRef { return []SignalRef{s.Gate, s.Speed} }
func (s *SamplePlayback) ProvidesDelay() bool { return false }
func (s *SamplePlayback) Channels() int       { return 1 }

func (s *SamplePlayback) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	gate, speedBuf := inputs[0], inputs[1]
	if s.pcm == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	resampleRatio := float64(s.pcm.SampleRate) / float64(ctx.SampleRate)
	frames := float64(s.pcm.Frames())

	for i := range out {
		high := gate[i] > 0.5
		if high && !s.gateWasHigh {
			s.pos = 0
		}
		s.gateWasHigh = high

		i0 := int(math.Floor(s.pos))
		if i0 < 0 || i0 >= int(frames)-1 {
			out[i] = 0
			if s.Loop && i0 >= int(frames)-1 {
				s.pos = 0
			}
			continue
		}
		frac := s.pos - float64(i0)
		n := len(s.pcm.Channels)
		sum := float32(0)
		for ch := 0; ch < n; ch++ {
			a := s.pcm.At(ch, i0)
			b := s.pcm.At(ch, i0+1)
			sum += a + (b-a)*float32(frac)
		}
		if n > 0 {
			sum /= float32(n)
		}
		out[i] = sum

		speed := resolveSpeed(s.Mode, float64(speedBuf[i]), s.pcm)
		s.pos += speed * resampleRatio
		if s.pos >= frames && s.Loop {
			s.pos -= frames
		}
	}
}

// Slice divides a fixed sample into n equal slices and, on each Gate
// rising edge, plays back whichever slice SliceIndex currently names
// (sample-and-held, truncated to an integer and wrapped mod n) once
// through; a rising edge during playback restarts at the newly selected
// slice - the `chop`/`slice` idiom of granular playback over pattern-selected indices.
type Slice struct {
	name        string
	pcm         *SharedPcm
	n           int
	Gate        SignalRef
	SliceIndex  SignalRef
	playing     bool
	sliceStart  int
	sliceEnd    int
	pos         float64
	gateWasHigh bool
}

func NewSlice(name string, pcm *SharedPcm, n int, gate, sliceIndex SignalRef) *Slice {
	return &Slice{name: name, pcm: pcm, n: n, Gate: gate, SliceIndex: sliceIndex}
}

func (s *Slice) Name() string        { return s.name }
func (s *Slice) Inputs() []SignalRef { return []SignalRef{s.Gate, s.SliceIndex} }
func (s *Slice) ProvidesDelay() bool { return false }
func (s *Slice) Channels() int       { return 1 }

func (s *Slice) Process(ctx *RenderContext, inputs [][]float32, out []float32) {
	gate, idxBuf := inputs[0], inputs[1]
	if s.pcm == nil || s.n <= 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	frames := s.pcm.Frames()
	sliceLen := frames / s.n
	resampleRatio := float64(s.pcm.SampleRate) / float64(ctx.SampleRate)

	for i := range out {
		high := gate[i] > 0.5
		if high && !s.gateWasHigh {
			idx := int(math.Floor(float64(idxBuf[i])))
			idx = ((idx % s.n) + s.n) % s.n
			s.sliceStart = idx * sliceLen
			s.sliceEnd = s.sliceStart + sliceLen
			s.pos = float64(s.sliceStart)
			s.playing = true
		}
		s.gateWasHigh = high

		if !s.playing {
			out[i] = 0
			continue
		}
		i0 := int(math.Floor(s.pos))
		if i0 >= s.sliceEnd-1 || i0 >= frames-1 {
			s.playing = false
			out[i] = 0
			continue
		}
		frac := s.pos - float64(i0)
		n := len(s.pcm.Channels)
		sum := float32(0)
		for ch := 0; ch < n; ch++ {
			a := s.pcm.At(ch, i0)
			b := s.pcm.At(ch, i0+1)
			sum += a + (b-a)*float32(frac)
		}
		if n > 0 {
			sum /= float32(n)
		}
		out[i] = sum
		s.pos += resampleRatio
	}
}

// sample_bank.go - decoded-PCM-by-name lookup for Sample/SamplePlayback/Slice
// nodes.
//
// Grounded on the teacher's media_loader.go (name -> decoded resource
// lookup, decode-once-cache-forever) and spec.md §4.3/§6: the loader that
// turns a file path into PCM is an external collaborator; the engine core
// only ever asks the bank for a *SharedPcm by name.

package phonon

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SharedPcm is an immutable, shareable decoded sample: planar float32
// channels at a fixed sample rate. Once built it is never mutated, so
// concurrent voices can hold the same *SharedPcm without locking.
type SharedPcm struct {
	Name       string
	SampleRate int
	Channels   [][]float32
	BaseFreq   float64 // reference pitch for UnitHz speed conversion
}

// Frames returns the sample's length in frames (samples per channel).
func (s *SharedPcm) Frames() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// At returns channel ch's value at frame index i, or 0 out of range.
func (s *SharedPcm) At(ch, i int) float32 {
	if ch < 0 || ch >= len(s.Channels) {
		return 0
	}
	c := s.Channels[ch]
	if i < 0 || i >= len(c) {
		return 0
	}
	return c[i]
}

// SampleBank is the engine's decode-once, keep-forever cache of samples
// referenced by name from patterns.
type SampleBank struct {
	mu      sync.RWMutex
	samples map[string]*SharedPcm
}

// NewSampleBank returns an empty bank.
func NewSampleBank() *SampleBank {
	return &SampleBank{samples: make(map[string]*SharedPcm)}
}

// Get returns the named sample and whether it was found.
func (b *SampleBank) Get(name string) (*SharedPcm, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.samples[name]
	return s, ok
}

// Put registers a decoded sample under name, replacing any prior entry.
func (b *SampleBank) Put(name string, pcm *SharedPcm) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[name] = pcm
}

// LoadWav decodes a WAV stream via go-audio/wav into a named SharedPcm and
// registers it in the bank. BaseFreq defaults to middle C (261.63 Hz) per
// SPEC_FULL.md §3's UnitHz convention unless overridden afterwards.
func (b *SampleBank) LoadWav(name string, r io.Reader) (*SharedPcm, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sample bank: decode %q: %w", name, err)
	}
	if !dec.WasPCMAccessed() {
		return nil, fmt.Errorf("sample bank: %q: no PCM data decoded", name)
	}
	pcm := intBufferToSharedPcm(name, buf)
	b.Put(name, pcm)
	return pcm, nil
}

func intBufferToSharedPcm(name string, buf *audio.IntBuffer) *SharedPcm {
	format := buf.Format
	numChans := 1
	sampleRate := 44100
	if format != nil {
		numChans = format.NumChannels
		sampleRate = format.SampleRate
	}
	if numChans < 1 {
		numChans = 1
	}
	frames := len(buf.Data) / numChans
	channels := make([][]float32, numChans)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	maxVal := float64(int64(1) << uint(buf.SourceBitDepth-1))
	if buf.SourceBitDepth <= 0 {
		maxVal = float64(int64(1) << 15)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChans; c++ {
			raw := buf.Data[i*numChans+c]
			channels[c][i] = float32(float64(raw) / maxVal)
		}
	}
	return &SharedPcm{
		Name:       name,
		SampleRate: sampleRate,
		Channels:   channels,
		BaseFreq:   261.63,
	}
}

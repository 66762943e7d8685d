package phonon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
)

func writeFixtureWav(t *testing.T, path string, sampleRate int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
}

func TestLoadWavDecodesPCMAndRegistersInBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.wav")
	writeFixtureWav(t, path, 44100, []int{16384, -16384, 0, 8192})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	bank := NewSampleBank()
	pcm, err := bank.LoadWav("fixture", f)
	assert.NoError(t, err)
	assert.Equal(t, 44100, pcm.SampleRate)
	assert.Equal(t, 261.63, pcm.BaseFreq, "LoadWav defaults BaseFreq to middle C")
	assert.Len(t, pcm.Channels, 1)
	assert.Equal(t, 4, pcm.Frames())
	assert.InDelta(t, 0.5, float64(pcm.Channels[0][0]), 0.01)
	assert.InDelta(t, -0.5, float64(pcm.Channels[0][1]), 0.01)
	assert.InDelta(t, 0.0, float64(pcm.Channels[0][2]), 0.01)

	got, ok := bank.Get("fixture")
	assert.True(t, ok)
	assert.Same(t, pcm, got)
}

func TestLoadWavErrorsOnUnreadableStream(t *testing.T) {
	bank := NewSampleBank()
	_, err := bank.LoadWav("broken", &failingReader{})
	assert.Error(t, err)
}

type failingReader struct{}

func (f *failingReader) Read(p []byte) (int, error) { return 0, os.ErrClosed }

func TestSampleBankGetMissingReturnsFalse(t *testing.T) {
	bank := NewSampleBank()
	_, ok := bank.Get("nope")
	assert.False(t, ok)
}

func TestSampleBankPutOverwritesPriorEntry(t *testing.T) {
	bank := NewSampleBank()
	first := &SharedPcm{Name: "a"}
	second := &SharedPcm{Name: "b"}
	bank.Put("x", first)
	bank.Put("x", second)
	got, ok := bank.Get("x")
	assert.True(t, ok)
	assert.Same(t, second, got)
}

func TestIntBufferToSharedPcmHandlesMissingFormat(t *testing.T) {
	buf := &audio.IntBuffer{Data: []int{16384, -16384}, SourceBitDepth: 0}
	pcm := intBufferToSharedPcm("x", buf)
	assert.Equal(t, 44100, pcm.SampleRate, "a nil Format must fall back to a sane default sample rate")
	assert.Len(t, pcm.Channels, 1)
	assert.InDelta(t, 0.5, float64(pcm.Channels[0][0]), 0.01)
}

func TestSharedPcmAtIsOutOfRangeSafe(t *testing.T) {
	pcm := &SharedPcm{Channels: [][]float32{{1, 2, 3}}}
	assert.Equal(t, float32(0), pcm.At(0, -1))
	assert.Equal(t, float32(0), pcm.At(0, 99))
	assert.Equal(t, float32(0), pcm.At(5, 0))
	assert.Equal(t, float32(2), pcm.At(0, 1))
}

func TestSharedPcmFramesOfEmptyIsZero(t *testing.T) {
	pcm := &SharedPcm{}
	assert.Equal(t, 0, pcm.Frames())
}

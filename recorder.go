// recorder.go - float32 WAV capture (C9). The synthesis worker must never
// block on disk I/O, so Recorder hands blocks to a small bounded channel
// drained by its own goroutine, mirroring the engine's own
// producer/single-consumer discipline (ringbuffer.go) one level up the
// stack, just with a channel instead of a lock-free ring since encoder
// writes are not hot-path work worth the extra complexity.
//
// Grounded on github.com/go-audio/wav + github.com/go-audio/audio, the
// pair sample_bank.go already uses to decode WAV input; the Encoder's
// public API only accepts an *audio.IntBuffer, so writing IEEE-float PCM
// (WAV format tag 3) means stashing each float32's bit pattern as an int
// in IntBuffer.Data - the same trick in reverse of decoding it.
package phonon

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatIEEEFloat = 3

// Recorder captures interleaved float32 audio (with the channel count given
// to NewRecorder) to a WAV file on disk, without ever blocking the caller
// that feeds it.
type Recorder struct {
	file    *os.File
	enc     *wav.Encoder
	blocks  chan []float32
	done    chan struct{}
	dropped uint64
}

// NewRecorder creates path and starts the background writer goroutine.
func NewRecorder(path string, sampleRate, channels int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 32, channels, wavFormatIEEEFloat)
	r := &Recorder{
		file:   f,
		enc:    enc,
		blocks: make(chan []float32, 64),
		done:   make(chan struct{}),
	}
	go r.run(channels, sampleRate)
	return r, nil
}

func (r *Recorder) run(channels, sampleRate int) {
	defer close(r.done)
	format := &audio.Format{NumChannels: channels, SampleRate: sampleRate}
	for block := range r.blocks {
		data := make([]int, len(block))
		for i, s := range block {
			data[i] = int(math.Float32bits(s))
		}
		buf := &audio.IntBuffer{
			Format:         format,
			Data:           data,
			SourceBitDepth: 32,
		}
		if err := r.enc.Write(buf); err != nil {
			return
		}
	}
}

// Write enqueues an interleaved block for encoding. If the writer
// goroutine is falling behind, the block is dropped rather than blocking
// the synthesis thread - spec.md §7's realtime guarantee outranks
// recording completeness.
func (r *Recorder) Write(block []float32) {
	cp := make([]float32, len(block))
	copy(cp, block)
	select {
	case r.blocks <- cp:
	default:
		r.dropped++
	}
}

// Dropped returns how many blocks were discarded because the writer
// goroutine could not keep up.
func (r *Recorder) Dropped() uint64 { return r.dropped }

// Close finishes writing pending blocks, finalises the WAV header, and
// closes the file.
func (r *Recorder) Close() error {
	close(r.blocks)
	<-r.done
	if err := r.enc.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

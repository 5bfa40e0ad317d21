// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder writes the mono analysis stream to a WAV file. Write is cheap
// while no recording is active, so capture can call it unconditionally.
type Recorder struct {
	sampleRate int
	bitDepth   int

	isRecording atomic.Bool

	mu         sync.Mutex
	filename   string
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion
}

// NewRecorder returns an idle recorder for mono PCM at the given rate and
// bit depth (16, 24 or 32).
func NewRecorder(sampleRate, bitDepth int) (*Recorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid recording sample rate %d", sampleRate)
	}
	if err := validBitDepth(bitDepth); err != nil {
		return nil, err
	}
	return &Recorder{sampleRate: sampleRate, bitDepth: bitDepth}, nil
}

// RecordingPath returns a timestamped file name inside dir.
func RecordingPath(dir string, t time.Time) string {
	return filepath.Join(dir, "spectra-"+t.Format("20060102-150405")+".wav")
}

func (r *Recorder) StartRecording(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRecording.Load() {
		return fmt.Errorf("already recording to %s", r.filename)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create recording dir: %w", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	r.filename = filename
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, r.bitDepth, 1, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: r.sampleRate},
		SourceBitDepth: r.bitDepth,
	}

	r.isRecording.Store(true)
	return nil
}

func (r *Recorder) StopRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRecording.Load() {
		return nil
	}
	r.isRecording.Store(false)

	var encErr, fileErr error
	if r.wavEncoder != nil {
		encErr = r.wavEncoder.Close()
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		fileErr = r.outputFile.Close()
		r.outputFile = nil
	}
	r.sampleBuf = nil

	if encErr != nil {
		return fmt.Errorf("finalize %s: %w", r.filename, encErr)
	}
	return fileErr
}

// Write appends mono samples to the active recording. It is a no-op when not
// recording.
func (r *Recorder) Write(samples []float32) error {
	if !r.isRecording.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return nil
	}

	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]
	floatsToInts(r.sampleBuf.Data, samples, r.bitDepth)

	return r.wavEncoder.Write(r.sampleBuf)
}

func (r *Recorder) Recording() bool { return r.isRecording.Load() }

// Filename returns the file of the current or last recording.
func (r *Recorder) Filename() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filename
}

// Close stops any active recording.
func (r *Recorder) Close() error {
	return r.StopRecording()
}

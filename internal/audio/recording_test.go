// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"spectra/pkg/utils"
)

const (
	testSampleRate = 44100
	testFrameSize  = 512
)

func newTestRecorder(t *testing.T, bitDepth int) *Recorder {
	t.Helper()
	r, err := NewRecorder(testSampleRate, bitDepth)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewRecorderErrors(t *testing.T) {
	tests := []struct {
		desc       string
		sampleRate int
		bitDepth   int
	}{
		{"Zero sample rate", 0, 16},
		{"Eight bit", testSampleRate, 8},
		{"Odd bit depth", testSampleRate, 20},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := NewRecorder(tt.sampleRate, tt.bitDepth); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRecordingStartStop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_recording.wav")
	r := newTestRecorder(t, 16)

	if err := r.StartRecording(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if !r.Recording() {
		t.Error("Recorder should be in recording state")
	}
	if r.wavEncoder == nil {
		t.Error("WAV encoder should be initialized")
	}
	if r.sampleBuf.Format.NumChannels != 1 {
		t.Errorf("Buffer channels = %d, want 1", r.sampleBuf.Format.NumChannels)
	}

	outputFile := r.outputFile
	if err := r.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	if r.Recording() {
		t.Error("Recorder should not be in recording state after stopping")
	}
	if r.outputFile != nil || r.wavEncoder != nil {
		t.Error("Recorder resources should be released after stopping")
	}
	if err := outputFile.Close(); err == nil {
		t.Error("File should already be closed")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Error("Recording file was not created")
	}
	if r.Filename() != filename {
		t.Errorf("Filename() = %q, want %q", r.Filename(), filename)
	}
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()

	t.Run("Already recording", func(t *testing.T) {
		r := newTestRecorder(t, 16)
		if err := r.StartRecording(filepath.Join(dir, "a.wav")); err != nil {
			t.Fatal(err)
		}
		err := r.StartRecording(filepath.Join(dir, "b.wav"))
		if err == nil || !strings.Contains(err.Error(), "already recording") {
			t.Errorf("expected already recording error, got %v", err)
		}
	})

	t.Run("Invalid path", func(t *testing.T) {
		r := newTestRecorder(t, 16)
		blocker := filepath.Join(dir, "blocker")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := r.StartRecording(filepath.Join(blocker, "file.wav")); err == nil {
			t.Error("expected error for path below a regular file")
		}
		if r.Recording() {
			t.Error("failed start must not enter recording state")
		}
	})

	t.Run("Stop when not recording", func(t *testing.T) {
		r := newTestRecorder(t, 16)
		if err := r.StopRecording(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Write when not recording", func(t *testing.T) {
		r := newTestRecorder(t, 16)
		if err := r.Write([]float32{0.1, 0.2}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestRecordingRoundTrip(t *testing.T) {
	for _, bitDepth := range []int{16, 24, 32} {
		t.Run(fmt.Sprintf("%dbit", bitDepth), func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), "sine.wav")
			r := newTestRecorder(t, bitDepth)
			if err := r.StartRecording(filename); err != nil {
				t.Fatal(err)
			}

			signal := utils.SineWave(4*testFrameSize, testSampleRate, 440, 0.5)
			for i := 0; i < len(signal); i += testFrameSize {
				if err := r.Write(signal[i : i+testFrameSize]); err != nil {
					t.Fatalf("Write: %v", err)
				}
			}
			if err := r.StopRecording(); err != nil {
				t.Fatal(err)
			}

			f, err := os.Open(filename)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			dec := wav.NewDecoder(f)
			if !dec.IsValidFile() {
				t.Fatal("recorded file is not a valid WAV")
			}
			buf, err := dec.FullPCMBuffer()
			if err != nil {
				t.Fatalf("FullPCMBuffer: %v", err)
			}
			if int(dec.SampleRate) != testSampleRate || dec.NumChans != 1 || int(dec.BitDepth) != bitDepth {
				t.Fatalf("format = %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
			}
			if len(buf.Data) != len(signal) {
				t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(signal))
			}

			got := make([]float32, len(buf.Data))
			intsToFloats(got, buf.Data, bitDepth)
			for i := range got {
				if math.Abs(float64(got[i]-signal[i])) > 1e-3 {
					t.Fatalf("sample %d = %v, want %v", i, got[i], signal[i])
				}
			}
		})
	}
}

func TestRecordingClipsOutOfRange(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "clip.wav")
	r := newTestRecorder(t, 16)
	if err := r.StartRecording(filename); err != nil {
		t.Fatal(err)
	}
	if err := r.Write([]float32{2, -2, 0}); err != nil {
		t.Fatal(err)
	}
	if err := r.StopRecording(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	want := []int{math.MaxInt16, -math.MaxInt16, 0}
	for i, v := range want {
		if buf.Data[i] != v {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], v)
		}
	}
}

func TestRecordingPath(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	got := RecordingPath("out", ts)
	if want := filepath.Join("out", "spectra-20240309-140507.wav"); got != want {
		t.Errorf("RecordingPath = %q, want %q", got, want)
	}
}

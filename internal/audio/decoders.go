// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// ErrUnsupportedFormat is returned for files no registered decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// PCMReader yields interleaved float32 samples in [-1, 1].
type PCMReader interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst with interleaved samples and returns how many
	// values were written. It returns 0, io.EOF once the stream is exhausted.
	ReadSamples(dst []float32) (int, error)
}

// DecodeFunc opens a PCMReader over r.
type DecodeFunc func(r io.ReadSeeker) (PCMReader, error)

var decoders = struct {
	mu    sync.RWMutex
	byExt map[string]DecodeFunc
}{
	byExt: map[string]DecodeFunc{
		".wav":  decodeWAV,
		".wave": decodeWAV,
		".mp3":  decodeMP3,
		".ogg":  decodeOgg,
		".oga":  decodeOgg,
	},
}

// RegisterDecoder installs fn for files with the given extension
// (case-insensitive, leading dot optional), replacing any existing entry.
func RegisterDecoder(ext string, fn DecodeFunc) {
	decoders.mu.Lock()
	defer decoders.mu.Unlock()
	decoders.byExt[normalizeExt(ext)] = fn
}

// DecoderFor returns the decoder registered for path's extension.
func DecoderFor(path string) (DecodeFunc, error) {
	ext := normalizeExt(filepath.Ext(path))

	decoders.mu.RLock()
	defer decoders.mu.RUnlock()
	fn, ok := decoders.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return fn, nil
}

// SupportedExtensions lists the registered extensions in sorted order.
func SupportedExtensions() []string {
	decoders.mu.RLock()
	defer decoders.mu.RUnlock()

	exts := make([]string, 0, len(decoders.byExt))
	for ext := range decoders.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// --- WAV ---

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

type wavReader struct {
	dec      *wav.Decoder
	rate     int
	channels int
	bitDepth int
	buf      *goaudio.IntBuffer
}

func decodeWAV(r io.ReadSeeker) (PCMReader, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}
	if f := dec.WavAudioFormat; f != wavFormatPCM && f != wavFormatExtensible {
		return nil, fmt.Errorf("%w: WAV encoding %d, only integer PCM is supported", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	return &wavReader{
		dec:      dec,
		rate:     int(dec.SampleRate),
		channels: int(dec.NumChans),
		bitDepth: int(dec.BitDepth),
		buf:      &goaudio.IntBuffer{Format: dec.Format()},
	}, nil
}

func (w *wavReader) SampleRate() int { return w.rate }
func (w *wavReader) Channels() int   { return w.channels }

func (w *wavReader) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if cap(w.buf.Data) < len(dst) {
		w.buf.Data = make([]int, len(dst))
	}
	w.buf.Data = w.buf.Data[:len(dst)]

	n, err := w.dec.PCMBuffer(w.buf)
	if err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	intsToFloats(dst[:n], w.buf.Data[:n], w.bitDepth)
	return n, nil
}

// --- MP3 ---

// mp3Source is the part of *mp3.Decoder the reader uses. The decoder always
// produces 16-bit little-endian stereo.
type mp3Source interface {
	io.Reader
	SampleRate() int
}

type mp3Reader struct {
	src mp3Source
	buf []byte
}

func decodeMP3(r io.ReadSeeker) (PCMReader, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrUnsupportedFormat, err)
	}
	return &mp3Reader{src: dec}, nil
}

func (m *mp3Reader) SampleRate() int { return m.src.SampleRate() }
func (m *mp3Reader) Channels() int   { return 2 }

func (m *mp3Reader) ReadSamples(dst []float32) (int, error) {
	want := len(dst) * 2
	if cap(m.buf) < want {
		m.buf = make([]byte, want)
	}
	m.buf = m.buf[:want]

	n, err := io.ReadFull(m.src, m.buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if n < 2 {
			return 0, io.EOF
		}
	case err != nil:
		return 0, fmt.Errorf("mp3: %w", err)
	}

	samples := n / 2
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(m.buf[2*i:]))
		dst[i] = float32(v) / 32768.0
	}
	return samples, nil
}

// --- Ogg Vorbis ---

// oggSource is the part of *oggvorbis.Reader the reader uses.
type oggSource interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type oggReader struct {
	src oggSource
}

func decodeOgg(r io.ReadSeeker) (PCMReader, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: ogg: %v", ErrUnsupportedFormat, err)
	}
	return &oggReader{src: dec}, nil
}

func (o *oggReader) SampleRate() int { return o.src.SampleRate() }
func (o *oggReader) Channels() int   { return o.src.Channels() }

func (o *oggReader) ReadSamples(dst []float32) (int, error) {
	if len(dst) < o.src.Channels() {
		return 0, nil
	}

	n, err := o.src.Read(dst)
	switch {
	case n > 0:
		return n, nil
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	case err != nil:
		return 0, fmt.Errorf("ogg: %w", err)
	}
	return 0, nil
}

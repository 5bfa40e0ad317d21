// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"spectra/internal/log"
)

// FileSource plays a decoded audio file as a mono sample stream.
type FileSource struct {
	path     string
	decode   DecodeFunc
	rate     int
	channels int
	cfg      sourceConfig
	log      *log.Logger
}

// NewFileSource probes path and returns a source for it. The decoder is
// chosen by extension, see SupportedExtensions.
func NewFileSource(path string, opts ...SourceOption) (*FileSource, error) {
	decode, err := DecoderFor(path)
	if err != nil {
		return nil, err
	}

	s := &FileSource{
		path:   path,
		decode: decode,
		cfg:    newSourceConfig(opts),
		log:    log.Named("file"),
	}

	f, pcm, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s.rate, s.channels = pcm.SampleRate(), pcm.Channels()
	if s.rate <= 0 || s.channels <= 0 {
		return nil, fmt.Errorf("%s: invalid stream format (%d Hz, %d channels)", path, s.rate, s.channels)
	}
	return s, nil
}

func (s *FileSource) SampleRate() float64 { return float64(s.rate) }
func (s *FileSource) Channels() int       { return s.channels }
func (s *FileSource) Path() string        { return s.path }

// Stream decodes the file and emits mono chunks until the file ends (or,
// when looping, until ctx is cancelled).
func (s *FileSource) Stream(ctx context.Context, emit func([]float32)) error {
	p := newPacer(float64(s.rate), s.cfg.realtime)
	var total int64

	for pass := 0; ; pass++ {
		n, err := s.play(ctx, emit, p, &total)
		if err != nil {
			return err
		}
		if !s.cfg.loop || n == 0 || s.limitReached(total) {
			return nil
		}
		s.log.Debugf("looping %s (pass %d)", s.path, pass+1)
	}
}

// play runs one pass over the file and returns the number of samples emitted.
func (s *FileSource) play(ctx context.Context, emit func([]float32), p *pacer, total *int64) (int64, error) {
	f, pcm, err := s.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	channels := pcm.Channels()
	buf := make([]float32, s.cfg.chunkSize*channels)
	var emitted int64

	for {
		if err := ctx.Err(); err != nil {
			return emitted, err
		}

		want := buf
		if s.cfg.limit > 0 {
			remaining := (s.cfg.limit - *total) * int64(channels)
			want = buf[:min(int64(len(buf)), remaining)]
		}

		n, err := pcm.ReadSamples(want)
		if n > 0 {
			mono := make([]float32, n/channels)
			frames := Downmix(mono, buf[:n], channels)
			if frames > 0 {
				emit(mono[:frames])
				emitted += int64(frames)
				*total += int64(frames)
				if err := p.wait(ctx, frames); err != nil {
					return emitted, err
				}
			}
		}

		switch {
		case errors.Is(err, io.EOF), s.limitReached(*total):
			return emitted, nil
		case err != nil:
			return emitted, fmt.Errorf("%s: %w", s.path, err)
		}
	}
}

func (s *FileSource) limitReached(total int64) bool {
	return s.cfg.limit > 0 && total >= s.cfg.limit
}

func (s *FileSource) open() (*os.File, PCMReader, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, err
	}
	pcm, err := s.decode(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return f, pcm, nil
}

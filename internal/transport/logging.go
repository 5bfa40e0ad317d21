// SPDX-License-Identifier: MIT
package transport

import (
	"strings"
	"sync/atomic"

	"spectra/internal/log"
	"spectra/internal/spectrum"
)

// LoggingTransport writes a compact summary of every Nth frame at debug
// level. Useful in headless mode to see that audio is flowing.
type LoggingTransport struct {
	every uint64
	count atomic.Uint64
	log   *log.Logger
}

// NewLoggingTransport logs one of every `every` frames (minimum 1).
func NewLoggingTransport(every int) *LoggingTransport {
	return &LoggingTransport{every: uint64(max(every, 1)), log: log.Named("frames")}
}

// Send logs frames; other values are logged with %v.
func (lt *LoggingTransport) Send(data any) error {
	if lt.count.Add(1)%lt.every != 0 {
		return nil
	}
	frame, ok := data.(spectrum.Frame)
	if !ok {
		lt.log.Debugf("%T: %v", data, data)
		return nil
	}
	lt.log.Debugf("seq=%d %s", frame.Seq, Sparkline(frame.Values(), float32(frame.Config.MaxVolume)))
	return nil
}

func (lt *LoggingTransport) Close() error { return nil }

var sparkGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline renders values in [0, ceiling] as one line of block glyphs.
func Sparkline(values []float32, ceiling float32) string {
	if ceiling <= 0 {
		ceiling = 1
	}
	var sb strings.Builder
	top := float32(len(sparkGlyphs) - 1)
	for _, v := range values {
		idx := int(min(max(v/ceiling, 0), 1)*top + 0.5)
		sb.WriteRune(sparkGlyphs[idx])
	}
	return sb.String()
}

var _ Transport = (*LoggingTransport)(nil)

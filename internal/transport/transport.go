// SPDX-License-Identifier: MIT

// Package transport delivers spectrum frames to consumers outside the
// process: browsers over WebSocket, other programs over UDP, or the log.
package transport

import (
	"time"

	"spectra/internal/spectrum"
)

// Transport is a push sink for processed data. Implementations must be safe
// for concurrent use and must not block the caller for long; dropping data
// is preferable to stalling the processing loop.
type Transport interface {
	Send(data any) error
	Close() error
}

// FrameSource exposes the latest published frame. *spectrum.Pipeline
// implements it.
type FrameSource interface {
	Frame() spectrum.Frame
}

// BarMessage is the wire form of one bar.
type BarMessage struct {
	LowHz  float64 `json:"low_hz"`
	HighHz float64 `json:"high_hz"`
	Raw    float32 `json:"raw"`
	Value  float32 `json:"value"`
}

// FrameMessage is the wire form of a frame, as sent to WebSocket clients.
type FrameMessage struct {
	Seq       uint64       `json:"seq"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds.
	MaxVolume float64      `json:"max_volume"`
	Bars      []BarMessage `json:"bars"`
}

// NewFrameMessage flattens f for serialization.
func NewFrameMessage(f spectrum.Frame) FrameMessage {
	msg := FrameMessage{
		Seq:       f.Seq,
		Timestamp: f.Timestamp.UnixMilli(),
		MaxVolume: f.Config.MaxVolume,
		Bars:      make([]BarMessage, len(f.Bars)),
	}
	for i, b := range f.Bars {
		msg.Bars[i] = BarMessage{
			LowHz:  b.Range.LowHz,
			HighHz: b.Range.HighHz,
			Raw:    b.RawValue,
			Value:  b.Value,
		}
	}
	return msg
}

// Time returns the frame timestamp.
func (m FrameMessage) Time() time.Time { return time.UnixMilli(m.Timestamp) }

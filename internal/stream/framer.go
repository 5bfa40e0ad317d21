// SPDX-License-Identifier: MIT
package stream

// Framer turns arbitrarily sized chunks into analysis windows of a fixed
// size. It keeps only the most recent size samples; older audio is dropped to
// keep latency low. The window starts out silent, so the first frame is
// available as soon as hop new samples have arrived.
type Framer struct {
	window  []float32
	hop     int
	pending int // Samples written since the last Frame call.
}

// NewFramer creates a framer producing windows of size samples every hop new
// samples. hop <= 0 yields a window after every Write.
func NewFramer(size, hop int) *Framer {
	return &Framer{window: make([]float32, size), hop: hop}
}

// Size returns the window length.
func (f *Framer) Size() int { return len(f.window) }

// Write appends chunk to the sliding window.
func (f *Framer) Write(chunk []float32) {
	size := len(f.window)
	n := len(chunk)
	if n == 0 {
		return
	}
	if n >= size {
		copy(f.window, chunk[n-size:])
	} else {
		copy(f.window, f.window[n:])
		copy(f.window[size-n:], chunk)
	}
	f.pending += n
}

// Ready reports whether enough new samples arrived for another frame.
func (f *Framer) Ready() bool {
	if f.hop <= 0 {
		return f.pending > 0
	}
	return f.pending >= f.hop
}

// Frame returns the current window and marks it consumed. The slice is owned
// by the framer and is only valid until the next Write or Resize.
func (f *Framer) Frame() []float32 {
	f.pending = 0
	return f.window
}

// Resize changes the window length, keeping the newest samples. Growing pads
// the old end with silence.
func (f *Framer) Resize(size int) {
	if size == len(f.window) {
		return
	}
	next := make([]float32, size)
	if size <= len(f.window) {
		copy(next, f.window[len(f.window)-size:])
	} else {
		copy(next[size-len(f.window):], f.window)
	}
	f.window = next
}

// SPDX-License-Identifier: MIT
package stream

import (
	"sync"
	"sync/atomic"
)

// Queue is a bounded FIFO of sample chunks between a source and the
// processing loop. Push never blocks: when the queue is full the oldest chunk
// is discarded, since only the most recent audio matters for display.
type Queue struct {
	mu      sync.Mutex // Serializes producers and Close.
	ch      chan []float32
	closed  bool
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at most depth chunks (minimum 1).
func NewQueue(depth int) *Queue {
	return &Queue{ch: make(chan []float32, max(depth, 1))}
}

// Push enqueues chunk, evicting the oldest entries if needed. Pushing to a
// closed queue is a no-op. The queue keeps chunk as is; callers must not
// reuse it.
func (q *Queue) Push(chunk []float32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	for {
		select {
		case q.ch <- chunk:
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// C returns the receive side. After Close, receivers still get the chunks
// queued before it and then see the channel closed.
func (q *Queue) C() <-chan []float32 { return q.ch }

// Len returns the number of queued chunks.
func (q *Queue) Len() int { return len(q.ch) }

// Dropped returns how many chunks have been evicted so far.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Close stops accepting chunks. Already queued chunks can still be received.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

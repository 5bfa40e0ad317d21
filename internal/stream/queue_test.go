// SPDX-License-Identifier: MIT
package stream

import (
	"sync"
	"testing"
)

func TestQueueDropsOldest(t *testing.T) {
	q := NewQueue(2)
	for i := range 5 {
		q.Push([]float32{float32(i)})
	}

	if q.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", q.Dropped())
	}
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	for _, want := range []float32{3, 4} {
		if got := <-q.C(); got[0] != want {
			t.Errorf("received %v, want %v", got[0], want)
		}
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(4)
	q.Push([]float32{1})
	q.Close()
	q.Close()
	q.Push([]float32{2}) // Ignored after close.

	var got []float32
	for chunk := range q.C() {
		got = append(got, chunk...)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("drained %v, want [1]", got)
	}
}

func TestQueuePushNeverBlocks(t *testing.T) {
	q := NewQueue(1)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				q.Push(nil)
			}
		}()
	}
	wg.Wait()

	if got := q.Dropped() + uint64(q.Len()); got != 4000 {
		t.Errorf("dropped+queued = %d, want 4000", got)
	}
}

func BenchmarkQueuePush(b *testing.B) {
	q := NewQueue(8)
	chunk := make([]float32, 512)

	b.ReportAllocs()
	for b.Loop() {
		q.Push(chunk)
	}
}

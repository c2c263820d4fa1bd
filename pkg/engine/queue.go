package engine

import (
	"container/heap"
	"sync"

	"github.com/petriborg/follow/pkg/core"
)

// lineHeap is a min-heap ordered by (Timestamp, Seq).
type lineHeap []core.TimestampedLine

func (h lineHeap) Len() int           { return len(h) }
func (h lineHeap) Less(i, j int) bool { return h[i].Before(h[j]) }
func (h lineHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *lineHeap) Push(x any) {
	*h = append(*h, x.(core.TimestampedLine))
}

func (h *lineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = core.TimestampedLine{}
	*h = old[:n-1]
	return item
}

// buffer is the shared ordering structure between read loops and the drain loop.
type buffer struct {
	mu sync.Mutex
	h  lineHeap
}

func (b *buffer) push(l core.TimestampedLine) {
	b.mu.Lock()
	heap.Push(&b.h, l)
	b.mu.Unlock()
}

// popAll removes every buffered line in key order.
func (b *buffer) popAll() []core.TimestampedLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.h) == 0 {
		return nil
	}
	out := make([]core.TimestampedLine, 0, len(b.h))
	for len(b.h) > 0 {
		out = append(out, heap.Pop(&b.h).(core.TimestampedLine))
	}
	return out
}

func (b *buffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.h)
}

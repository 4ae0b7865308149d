package scheduler

import (
	"container/heap"
	"time"
)

type timer struct {
	handle Handle
	due    time.Time
	seq    uint64
	fn     Callback
	index  int
}

// timerHeap implements container/heap.Interface, earliest due first.
// Equal due instants keep scheduling order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

func heapPush(h *timerHeap, t *timer) {
	heap.Push(h, t)
}

// heapPop removes the earliest timer. Panics if the heap is empty.
func heapPop(h *timerHeap) *timer {
	return heap.Pop(h).(*timer)
}

func heapRemove(h *timerHeap, t *timer) {
	if t.index < 0 || t.index >= h.Len() || (*h)[t.index] != t {
		return
	}
	heap.Remove(h, t.index)
}

// peek returns the earliest timer without removing it, or nil.
func (h timerHeap) peek() *timer {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

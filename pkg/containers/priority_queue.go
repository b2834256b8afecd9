package containers

import (
	"container/heap"
)

// PriorityQueue is a max-first binary heap. The element for which
// less reports false against every other element is on top.
type PriorityQueue[T any] struct {
	h maxHeap[T]
}

// NewPriorityQueue creates an empty PriorityQueue ordered by less.
func NewPriorityQueue[T any](less func(a, b T) bool) *PriorityQueue[T] {
	return &PriorityQueue[T]{h: maxHeap[T]{less: less}}
}

// Push inserts elem in O(log n).
func (pq *PriorityQueue[T]) Push(elem T) {
	heap.Push(&pq.h, elem)
}

// Pop removes the top element in O(log n).
func (pq *PriorityQueue[T]) Pop() {
	heap.Pop(&pq.h)
}

// Top returns the maximum element.
func (pq *PriorityQueue[T]) Top() T {
	return pq.h.elems[0]
}

func (pq *PriorityQueue[T]) Empty() bool {
	return len(pq.h.elems) == 0
}

func (pq *PriorityQueue[T]) Len() int {
	return len(pq.h.elems)
}

// PriorityQueueWrapper lets a PriorityQueue serve as the Container of a
// BlockingQueue: Front is the current maximum. It gives no FIFO guarantee.
type PriorityQueueWrapper[T any] struct {
	*PriorityQueue[T]
}

// NewPriorityQueueWrapper wraps a new PriorityQueue ordered by less.
func NewPriorityQueueWrapper[T any](less func(a, b T) bool) *PriorityQueueWrapper[T] {
	return &PriorityQueueWrapper[T]{PriorityQueue: NewPriorityQueue(less)}
}

// Front returns Top.
func (w *PriorityQueueWrapper[T]) Front() T {
	return w.Top()
}

// maxHeap implements heap.Interface with the comparison inverted.
type maxHeap[T any] struct {
	elems []T
	less  func(a, b T) bool
}

func (h *maxHeap[T]) Len() int { return len(h.elems) }

func (h *maxHeap[T]) Less(i, j int) bool { return h.less(h.elems[j], h.elems[i]) }

func (h *maxHeap[T]) Swap(i, j int) { h.elems[i], h.elems[j] = h.elems[j], h.elems[i] }

func (h *maxHeap[T]) Push(x any) {
	elem, _ := x.(T)
	h.elems = append(h.elems, elem)
}

func (h *maxHeap[T]) Pop() any {
	n := len(h.elems)
	elem := h.elems[n-1]
	var zero T
	h.elems[n-1] = zero
	h.elems = h.elems[:n-1]
	return elem
}

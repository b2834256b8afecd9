package containers

import (
	"github.com/edwingeng/deque"
)

// Deque is a FIFO Container backed by a chunked deque.
type Deque[T any] struct {
	dq deque.Deque
}

// NewDeque creates an empty Deque.
func NewDeque[T any]() *Deque[T] {
	return &Deque[T]{dq: deque.NewDeque()}
}

// Push appends elem to the back.
func (d *Deque[T]) Push(elem T) {
	d.dq.PushBack(elem)
}

// Pop removes the front element.
func (d *Deque[T]) Pop() {
	d.dq.PopFront()
}

// Front returns the earliest pushed element still in the deque.
func (d *Deque[T]) Front() T {
	// A nil interface value stored for an interface-typed T comes back
	// as the zero value.
	elem, _ := d.dq.Front().(T)
	return elem
}

func (d *Deque[T]) Empty() bool {
	return d.dq.Empty()
}

func (d *Deque[T]) Len() int {
	return d.dq.Len()
}

package containers

import (
	"sync"

	"github.com/gavv/monotime"
	"github.com/petermattis/goid"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/hanfei1991/blockingqueue/pkg/errors"
)

// BlockingQueue adapts a Container into a queue that is safe for concurrent
// use by multiple goroutines.
//
// All operations run under a single mutex. Pop on an empty queue sleeps until
// another goroutine pushes an item. To push or pop several items as one atomic
// unit, bracket the calls with Lock and Unlock:
//
//	q.Lock()
//	defer q.Unlock()
//	q.Push(a)
//	q.Push(b)
//
// Operations called by the goroutine that holds the lock use it as is instead
// of locking again. Note that Pop on an empty queue releases the lock while it
// waits, even inside such a bracket.
type BlockingQueue[T any, C Container[T]] struct {
	mu sync.Mutex
	// cond.L is the queue itself, so waiting keeps the owner register in step.
	cond  *sync.Cond
	owner owner

	c            C
	newContainer func() C

	metrics *Metrics
}

var _ sync.Locker = (*BlockingQueue[int, *Deque[int]])(nil)

// Option configures a BlockingQueue.
type Option func(*options)

type options struct {
	metrics *Metrics
}

// WithMetrics makes the queue report to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// NewBlockingQueueWith creates an empty BlockingQueue over the container
// returned by newContainer. newContainer is called again whenever the queue
// needs fresh storage.
func NewBlockingQueueWith[T any, C Container[T]](newContainer func() C, opts ...Option) *BlockingQueue[T, C] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	q := &BlockingQueue[T, C]{
		c:            newContainer(),
		newContainer: newContainer,
		metrics:      o.metrics,
	}
	q.cond = sync.NewCond(q)
	return q
}

// NewBlockingQueue creates an empty FIFO BlockingQueue.
func NewBlockingQueue[T any](opts ...Option) *BlockingQueue[T, *Deque[T]] {
	return NewBlockingQueueWith[T](NewDeque[T], opts...)
}

// NewBlockingPriorityQueue creates an empty BlockingQueue that always pops
// the maximum element according to less.
func NewBlockingPriorityQueue[T any](less func(a, b T) bool, opts ...Option) *BlockingQueue[T, *PriorityQueueWrapper[T]] {
	return NewBlockingQueueWith[T](func() *PriorityQueueWrapper[T] {
		return NewPriorityQueueWrapper(less)
	}, opts...)
}

// Move creates a BlockingQueue holding the current contents of src and
// leaves src empty. It holds the lock of src for the transfer; if the
// calling goroutine already owns that lock it is used as is.
func Move[T any, C Container[T]](src *BlockingQueue[T, C], opts ...Option) *BlockingQueue[T, C] {
	dst := NewBlockingQueueWith[T](src.newContainer, opts...)

	if src.acquire() {
		defer src.Unlock()
	}
	dst.c, src.c = src.c, src.newContainer()
	dst.metrics.setDepth(dst.c.Len())
	src.metrics.setDepth(0)
	log.L().Debug("blocking queue contents moved", zap.Int("items", dst.c.Len()))
	return dst
}

// Push adds item to the queue and wakes one goroutine blocked in Pop if the
// queue was empty.
func (q *BlockingQueue[T, C]) Push(item T) {
	if q.acquire() {
		defer q.Unlock()
	}

	wasEmpty := q.c.Empty()
	q.c.Push(item)
	q.metrics.onPush(q.c.Len())
	if wasEmpty {
		q.cond.Signal()
	}
}

// Pop removes and returns the front item, waiting for one to be pushed
// if the queue is empty. It never returns without an item.
func (q *BlockingQueue[T, C]) Pop() T {
	if q.acquire() {
		defer q.Unlock()
	}

	if q.c.Empty() {
		start := monotime.Now()
		for q.c.Empty() {
			q.cond.Wait()
		}
		q.metrics.onWait(monotime.Since(start))
	}
	return q.popFront()
}

// TryPop removes and returns the front item. It returns ErrQueueEmpty
// instead of waiting when the queue is empty.
func (q *BlockingQueue[T, C]) TryPop() (T, error) {
	if q.acquire() {
		defer q.Unlock()
	}

	if q.c.Empty() {
		var zero T
		return zero, errors.ErrQueueEmpty.FastGenByArgs()
	}
	return q.popFront(), nil
}

// Clear removes every item currently in the queue.
func (q *BlockingQueue[T, C]) Clear() {
	if q.acquire() {
		defer q.Unlock()
	}

	n := 0
	for !q.c.Empty() {
		q.c.Pop()
		n++
	}
	q.metrics.onClear(n)
}

// Empty reports whether the queue holds no items.
func (q *BlockingQueue[T, C]) Empty() bool {
	if q.acquire() {
		defer q.Unlock()
	}
	return q.c.Empty()
}

// Len returns the number of items in the queue.
func (q *BlockingQueue[T, C]) Len() int {
	if q.acquire() {
		defer q.Unlock()
	}
	return q.c.Len()
}

// Lock locks the queue against every other goroutine until Unlock.
// Locking a queue the calling goroutine already owns panics with
// ErrQueueRelock.
func (q *BlockingQueue[T, C]) Lock() {
	if q.owner.isCaller() {
		err := errors.ErrQueueRelock.GenWithStackByArgs(goid.Get())
		log.L().Error("blocking queue locked twice", zap.Error(err))
		panic(err)
	}
	q.mu.Lock()
	q.owner.claim()
}

// TryLock locks the queue if it is not locked, and reports whether it did.
// It fails while the queue is locked, including by the calling goroutine.
func (q *BlockingQueue[T, C]) TryLock() bool {
	if !q.mu.TryLock() {
		return false
	}
	q.owner.claim()
	return true
}

// Unlock unlocks the queue. Unlocking from a goroutine that does not own
// the lock panics with ErrQueueNotOwner.
func (q *BlockingQueue[T, C]) Unlock() {
	if !q.owner.isCaller() {
		err := errors.ErrQueueNotOwner.GenWithStackByArgs(goid.Get())
		log.L().Error("blocking queue unlocked by non-owner", zap.Error(err))
		panic(err)
	}
	q.owner.release()
	q.mu.Unlock()
}

// OwnsLock reports whether the calling goroutine holds the lock.
// It never blocks.
func (q *BlockingQueue[T, C]) OwnsLock() bool {
	return q.owner.isCaller()
}

// acquire locks q unless the calling goroutine already owns it, and reports
// whether it locked. Callers unlock only when acquire returns true.
func (q *BlockingQueue[T, C]) acquire() bool {
	if q.owner.isCaller() {
		return false
	}
	q.mu.Lock()
	q.owner.claim()
	return true
}

// popFront must be called with the lock held on a non-empty queue.
func (q *BlockingQueue[T, C]) popFront() T {
	item := q.c.Front()
	q.c.Pop()
	q.metrics.onPop(q.c.Len())
	if !q.c.Empty() {
		// Push signals only on empty to non-empty, so hand the wakeup on to
		// another waiter while items remain.
		q.cond.Signal()
	}
	return item
}

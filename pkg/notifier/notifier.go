package notifier

import (
	"context"
	"sync"

	"github.com/pingcap/errors"
	"go.uber.org/atomic"

	"github.com/hanfei1991/blockingqueue/pkg/containers"
	derrors "github.com/hanfei1991/blockingqueue/pkg/errors"
)

type receiverID = int64

// envelope is what travels through the notifier's queue. Exactly one of
// event, barrier and stop is meaningful.
type envelope[T any] struct {
	event   T
	barrier chan struct{}
	stop    bool
}

// Notifier is the sending endpoint of a single-producer-multiple-consumer
// notification mechanism.
type Notifier[T any] struct {
	receivers sync.Map // receiverID -> *Receiver[T]
	nextID    atomic.Int64

	queue *containers.BlockingQueue[envelope[T], *containers.Deque[envelope[T]]]

	closed    atomic.Bool
	closeCh   chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// Receiver is the receiving endpoint of a single-producer-multiple-consumer
// notification mechanism.
type Receiver[T any] struct {
	id receiverID
	C  chan T

	closeOnce sync.Once
	closed    atomic.Bool
	// closeCh unblocks a delivery to C that nobody will read.
	closeCh chan struct{}

	notifier *Notifier[T]
}

func (r *Receiver[T]) close() {
	r.closeOnce.Do(
		func() {
			r.closed.Store(true)
			close(r.closeCh)
			close(r.C)
		})
}

// Close closes the receiver. No event is sent to C after Close returns.
func (r *Receiver[T]) Close() {
	r.closeOnce.Do(
		func() {
			r.closed.Store(true)
			close(r.closeCh)
			r.notifier.receivers.Delete(r.id)
			// Wait for an in-flight delivery to finish before closing C.
			_ = r.notifier.barrier(context.Background())
			close(r.C)
		})
}

// NewNotifier creates a new Notifier.
func NewNotifier[T any]() *Notifier[T] {
	ret := &Notifier[T]{
		queue:   containers.NewBlockingQueue[envelope[T]](),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go ret.run()
	return ret
}

// NewReceiver creates a new Receiver associated with
// the given Notifier.
func (n *Notifier[T]) NewReceiver() *Receiver[T] {
	ch := make(chan T, 16)
	receiver := &Receiver[T]{
		id:       n.nextID.Add(1),
		C:        ch,
		closeCh:  make(chan struct{}),
		notifier: n,
	}

	n.receivers.Store(receiver.id, receiver)
	if n.closed.Load() {
		// Close may have collected the receivers already.
		n.receivers.Delete(receiver.id)
		receiver.close()
	}
	return receiver
}

// Notify sends a new notification event.
func (n *Notifier[T]) Notify(event T) {
	if n.closed.Load() {
		return
	}
	n.queue.Push(envelope[T]{event: event})
}

// Close closes the notifier.
func (n *Notifier[T]) Close() {
	n.closeOnce.Do(func() {
		n.closed.Store(true)
		close(n.closeCh)
		n.queue.Push(envelope[T]{stop: true})
		<-n.doneCh

		n.receivers.Range(func(key, value any) bool {
			n.receivers.Delete(key)
			value.(*Receiver[T]).close()
			return true
		})
		n.queue.Clear()
	})
}

// Flush waits until every event notified before the call has been
// delivered to the receivers.
func (n *Notifier[T]) Flush(ctx context.Context) error {
	return n.barrier(ctx)
}

func (n *Notifier[T]) barrier(ctx context.Context) error {
	if n.closed.Load() {
		return derrors.ErrNotifierClosed.GenWithStackByArgs()
	}

	done := make(chan struct{})
	n.queue.Push(envelope[T]{barrier: done})

	select {
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	case <-n.doneCh:
		return derrors.ErrNotifierClosed.GenWithStackByArgs()
	case <-done:
		return nil
	}
}

func (n *Notifier[T]) run() {
	defer close(n.doneCh)

	for {
		env := n.queue.Pop()
		switch {
		case env.stop:
			return
		case env.barrier != nil:
			close(env.barrier)
			continue
		}

		n.receivers.Range(func(_, value any) bool {
			receiver := value.(*Receiver[T])

			if receiver.closed.Load() {
				return true
			}

			select {
			case <-n.closeCh:
				return false
			case <-receiver.closeCh:
			case receiver.C <- env.event:
				// send the event to the receiver.
			}
			return true
		})
	}
}

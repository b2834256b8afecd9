package errctx

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// ErrCenter keeps the first error reported by any of a group of goroutines
// and cancels the contexts derived from it when that happens.
type ErrCenter struct {
	hasErr atomic.Bool
	errVal atomic.Error

	mu      sync.Mutex
	nextID  int
	cancels map[int]context.CancelFunc
}

func NewErrCenter() *ErrCenter {
	return &ErrCenter{
		cancels: make(map[int]context.CancelFunc),
	}
}

func (c *ErrCenter) OnError(err error) {
	if err == nil {
		return
	}
	if c.hasErr.Swap(true) {
		// OnError is no-op after the first call with
		// a non-nil error.
		return
	}
	c.errVal.Store(err)

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cancel := range c.cancels {
		cancel()
		delete(c.cancels, id)
	}
}

// CheckError returns the first reported error, or nil.
func (c *ErrCenter) CheckError() error {
	return c.errVal.Load()
}

// DeriveContext returns a context that is canceled when ctx is, when an
// error is reported to c, or when the returned cancel func is called.
// Once an error was reported, the context's Err returns that error.
func (c *ErrCenter) DeriveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.errVal.Load() != nil {
		c.mu.Unlock()
		cancel()
		return &errCtx{Context: ctx, center: c}, cancel
	}
	id := c.nextID
	c.nextID++
	c.cancels[id] = cancel
	c.mu.Unlock()

	return &errCtx{Context: ctx, center: c}, func() {
		c.mu.Lock()
		delete(c.cancels, id)
		c.mu.Unlock()
		cancel()
	}
}

package containers

import (
	"github.com/petermattis/goid"
	"go.uber.org/atomic"
)

// unowned is never a valid goroutine id; the runtime numbers goroutines from 1.
const unowned int64 = 0

// owner records which goroutine holds a lock. It is read without the lock,
// so any goroutine can ask whether it is the holder.
type owner struct {
	id atomic.Int64
}

// claim records the calling goroutine as the holder.
// The caller must have just acquired the lock.
func (o *owner) claim() {
	o.id.Store(goid.Get())
}

// release resets the register. The caller must still hold the lock.
func (o *owner) release() {
	o.id.Store(unowned)
}

// isCaller reports whether the calling goroutine is the recorded holder.
func (o *owner) isCaller() bool {
	return o.id.Load() == goid.Get()
}

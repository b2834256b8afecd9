package errctx

import (
	"context"
)

// errCtx is canceled by its center through the embedded context's cancel
// func, so Done needs no watcher of its own.
type errCtx struct {
	context.Context
	center *ErrCenter
}

// Err returns the error reported to the center once one was, and the
// parent's cancellation otherwise.
func (c *errCtx) Err() error {
	if c.Context.Err() == nil {
		return nil
	}
	if err := c.center.CheckError(); err != nil {
		return err
	}
	return c.Context.Err()
}

package particle

import (
	"context"
	"sync"
)

// completion is a single-assignment slot for the outcome of one dispatch.
// The first call to resolve wins; later calls are reported as discarded.
type completion struct {
	once sync.Once
	done chan struct{}
	data any
	err  error
}

func newCompletion() *completion {
	return &completion{done: make(chan struct{})}
}

// resolve stores the outcome if the slot is still empty.
// It returns false when an earlier signal already settled the call.
func (c *completion) resolve(data any, err error) bool {
	won := false
	c.once.Do(func() {
		c.data, c.err = data, err
		won = true
		close(c.done)
	})
	return won
}

// Future is the pending outcome of an asynchronous dispatch.
type Future struct {
	c *completion
}

// Done returns a channel that is closed once the outcome is available.
func (f *Future) Done() <-chan struct{} {
	return f.c.done
}

// Wait blocks until the outcome is available or ctx is done.
// Cancelling ctx only stops the wait; it does not abort the request.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.c.done:
		if resp, ok := f.c.data.(*response); ok {
			return resp.data, f.c.err
		}
		return f.c.data, f.c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

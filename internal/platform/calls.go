package platform

import (
	"context"
	"runtime"
	"time"
)

// nativeCall is one unit of work queued on an Executor.
type nativeCall struct {
	fn   func() error
	done chan error
}

// Executor serializes native API calls onto one goroutine. Accessibility
// APIs are not safely reentrant from multiple threads (COM apartments in
// particular), so every engine funnels its native work through one of
// these. Callers wait with a deadline; a call that outlives its deadline is
// abandoned and its eventual result discarded, which keeps a hung native
// call from wedging the caller even though the worker stays busy until the
// OS returns.
type Executor struct {
	calls chan *nativeCall
	stop  chan struct{}
}

// NewExecutor starts the worker goroutine. When lockThread is set the
// worker is pinned to one OS thread for the life of the executor, which is
// what a COM single-threaded apartment requires. setup runs first on the
// worker (CoInitialize and friends); teardown runs when the executor stops.
func NewExecutor(lockThread bool, setup func() error, teardown func()) (*Executor, error) {
	x := &Executor{
		calls: make(chan *nativeCall),
		stop:  make(chan struct{}),
	}

	ready := make(chan error, 1)
	go func() {
		if lockThread {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}
		if setup != nil {
			if err := setup(); err != nil {
				ready <- err
				return
			}
		}
		ready <- nil
		if teardown != nil {
			defer teardown()
		}
		for {
			select {
			case c := <-x.calls:
				c.done <- c.fn()
			case <-x.stop:
				return
			}
		}
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	return x, nil
}

// Do runs fn on the worker and waits for it to finish, at most until the
// timeout or the context deadline. A zero timeout waits on the context
// alone.
func (x *Executor) Do(ctx context.Context, timeout time.Duration, fn func() error) error {
	c := &nativeCall{fn: fn, done: make(chan error, 1)}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case x.calls <- c:
	case <-expired:
		return TimeoutError("native call queue full past deadline")
	case <-ctx.Done():
		return TimeoutError("operation cancelled before native call started").WithCause(ctx.Err())
	}

	select {
	case err := <-c.done:
		return err
	case <-expired:
		return TimeoutError("native call exceeded its deadline")
	case <-ctx.Done():
		return TimeoutError("operation cancelled during native call").WithCause(ctx.Err())
	}
}

// Close stops the worker once its current call, if any, returns.
func (x *Executor) Close() {
	close(x.stop)
}

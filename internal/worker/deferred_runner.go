package worker

import (
	"context"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Task is a detached continuation of a request that already returned.
type Task func(ctx context.Context)

// DeferredRunner starts tasks that outlive their HTTP request. Tasks are
// never cancelled; Wait only bounds how long shutdown waits for them.
type DeferredRunner struct {
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewDeferredRunner creates a runner.
func NewDeferredRunner(logger *zap.Logger) *DeferredRunner {
	return &DeferredRunner{logger: logger}
}

// Go runs task in its own goroutine. A panic is logged and swallowed.
func (r *DeferredRunner) Go(name, requestID string, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("deferred task panicked",
					zap.String("task", name),
					zap.String("request_id", requestID),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		task(context.Background())
	}()
}

// Wait blocks until all running tasks finish or ctx is done.
func (r *DeferredRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

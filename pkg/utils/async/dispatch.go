package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Task is a background job started by Dispatch
type Task struct {
	name string
	done chan struct{}
	err  error
}

// Done is closed when the handler has returned
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the handler returns or ctx ends, and returns the handler's error
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "gave up waiting for background task", goerr.V("task", t.name))
	}
}

// Dispatch runs handler in a new goroutine. The handler's context keeps the logger of
// ctx but not its cancellation, so the caller decides when the task stops (e.g. by
// shutting down the server it runs). A panic becomes the task error. Errors are logged
// and also returned by Wait.
func Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) *Task {
	logger := ctxlog.From(ctx).With("task", name)
	taskCtx := ctxlog.With(context.Background(), logger)

	task := &Task{
		name: name,
		done: make(chan struct{}),
	}

	go func() {
		defer close(task.done)
		if err := Protect(taskCtx, handler); err != nil {
			logger.Error("Background task failed", "error", err)
			task.err = err
		}
	}()

	return task
}

// Protect runs handler in the calling goroutine and converts a panic into an error.
// The stack of the panic is logged.
func Protect(ctx context.Context, handler func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.From(ctx).Error("Panic recovered",
				"recover", r,
				"stack", string(debug.Stack()),
			)
			err = goerr.New("panic recovered", goerr.V("recover", r))
		}
	}()

	return handler(ctx)
}

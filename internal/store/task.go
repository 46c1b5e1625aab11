package store

import (
	"context"
	"sync"

	"github.com/tmcnulty/quill/internal/errs"
)

// Task is the single-shot future returned by BackgroundTask. Resolution
// happens exactly once; the sync.Once makes double-resolution structurally
// impossible rather than a convention.
type Task struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) resolve(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Wait blocks until the task resolves or ctx is cancelled. The task keeps
// running after a cancelled Wait; only its result is abandoned.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return errs.OperationCancelled(ctx.Err())
	}
}

// Done exposes the completion channel for select loops.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

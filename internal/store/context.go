package store

import (
	"database/sql"
	"sync"
)

// Op is a single queued write executed inside the flushing transaction.
type Op func(tx *sql.Tx) error

// Context is a unit of pending work against the store. The main context
// lives as long as the Manager; background contexts live for one task.
// Operations queued on one context are serialized relative to each other by
// the queue itself.
type Context struct {
	mu      sync.Mutex
	pending []Op
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{}
}

// Enqueue appends a write operation to the pending queue.
func (c *Context) Enqueue(op Op) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, op)
}

// HasChanges reports whether any operations are waiting to be flushed.
func (c *Context) HasChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// take drains the queue. The caller owns the returned ops; if the flush
// fails they are gone, which keeps a failed save from replaying stale writes
// on the next save.
func (c *Context) take() []Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := c.pending
	c.pending = nil
	return ops
}

// Package store implements the local store manager: one long-lived main
// context for UI-facing writes plus isolated background contexts for bulk
// and async work, all flushing through the shared sqlite handle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tmcnulty/quill/internal/database"
	"github.com/tmcnulty/quill/internal/errs"
	"github.com/tmcnulty/quill/internal/logging"
)

// maxBackgroundTasks bounds concurrently running background contexts.
const maxBackgroundTasks = 4

// Manager is the single authority over the local store. One Manager exists
// per process, constructed at startup and passed explicitly to every
// repository and background task.
type Manager struct {
	db     *database.DB
	logger *logging.Logger
	main   *Context
	sem    *semaphore.Weighted
}

// NewManager wraps an opened store handle.
func NewManager(db *database.DB, logger *logging.Logger) *Manager {
	return &Manager{
		db:     db,
		logger: logger,
		main:   NewContext(),
		sem:    semaphore.NewWeighted(maxBackgroundTasks),
	}
}

// DB exposes the underlying handle for read paths.
func (m *Manager) DB() *database.DB {
	return m.db
}

// Main returns the long-lived main context. Writes against it must come
// from one logical owner; the context itself serializes queued operations
// but not the callers' decisions.
func (m *Manager) Main() *Context {
	return m.main
}

// Save flushes the main context. It no-ops when nothing is pending and
// never swallows a failure; callers that want to ignore errors use
// SaveIgnoringErrors.
func (m *Manager) Save(ctx context.Context) error {
	return m.flush(ctx, m.main)
}

// SaveIgnoringErrors saves the main context, logging and discarding any
// failure. For UI-adjacent convenience paths only; code that must observe
// success calls Save.
func (m *Manager) SaveIgnoringErrors(ctx context.Context) {
	if err := m.Save(ctx); err != nil {
		m.logger.Error("save failed", logging.WithField("error", err.Error()))
	}
}

// flush commits a context's pending operations in one transaction. A
// cancelled ctx rolls the whole transaction back, so partial mutations from
// a cancelled task are never persisted.
func (m *Manager) flush(ctx context.Context, c *Context) error {
	if c == nil {
		return errs.ContextNotAvailable()
	}
	if !c.HasChanges() {
		return nil
	}

	ops := c.take()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.SaveFailed(fmt.Errorf("begin tx: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range ops {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errs.OperationCancelled(ctxErr)
		}
		if err := op(tx); err != nil {
			if errs.IsDomain(err) {
				return err
			}
			return errs.SaveFailed(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.SaveFailed(fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

// BackgroundTask runs body against a fresh isolated context on its own
// goroutine and returns a Task that resolves exactly once. The context is
// auto-saved when the body queued changes. Domain errors from body propagate
// unchanged; anything else wraps as SaveFailed.
func (m *Manager) BackgroundTask(ctx context.Context, body func(*Context) error) *Task {
	return m.spawn(ctx, body, true, errs.SaveFailed)
}

// BackgroundTaskWithoutSave is BackgroundTask minus the auto-save; the body
// manages persistence explicitly. Non-domain failures wrap as FetchFailed.
func (m *Manager) BackgroundTaskWithoutSave(ctx context.Context, body func(*Context) error) *Task {
	return m.spawn(ctx, body, false, errs.FetchFailed)
}

func (m *Manager) spawn(ctx context.Context, body func(*Context) error, autoSave bool, wrap func(error) *errs.Error) *Task {
	task := newTask()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		task.resolve(errs.OperationCancelled(err))
		return task
	}

	go func() {
		defer m.sem.Release(1)

		bg := NewContext()

		if err := body(bg); err != nil {
			if errs.IsDomain(err) {
				task.resolve(err)
				return
			}
			task.resolve(wrap(err))
			return
		}

		if err := ctx.Err(); err != nil {
			// Cooperative cancellation: nothing queued gets committed.
			task.resolve(errs.OperationCancelled(err))
			return
		}

		if autoSave && bg.HasChanges() {
			if err := m.flush(ctx, bg); err != nil {
				task.resolve(err)
				return
			}
		}

		task.resolve(nil)
	}()

	return task
}

// PerformBackgroundTask blocks the caller until the background work
// completes or fails.
func (m *Manager) PerformBackgroundTask(ctx context.Context, body func(*Context) error) error {
	return m.BackgroundTask(ctx, body).Wait(ctx)
}

// PerformBackgroundTaskWithoutSave blocks until the non-saving variant
// completes or fails.
func (m *Manager) PerformBackgroundTaskWithoutSave(ctx context.Context, body func(*Context) error) error {
	return m.BackgroundTaskWithoutSave(ctx, body).Wait(ctx)
}

// allowedEntities guards BatchDelete against arbitrary table names.
var allowedEntities = map[string]bool{
	"feeds":            true,
	"articles":         true,
	"user_preferences": true,
	"change_log":       true,
}

// BatchDelete removes matching rows in bulk inside a background task and
// returns the deleted count. Failures wrap as DeleteFailed.
func (m *Manager) BatchDelete(ctx context.Context, entity, where string, args ...interface{}) (int64, error) {
	if !allowedEntities[entity] {
		return 0, errs.InvalidManagedObject(fmt.Errorf("unknown entity %q", entity))
	}

	var deleted int64
	err := m.PerformBackgroundTask(ctx, func(bg *Context) error {
		bg.Enqueue(func(tx *sql.Tx) error {
			query := "DELETE FROM " + entity
			if where != "" {
				query += " WHERE " + where
			}
			res, err := tx.Exec(query, args...)
			if err != nil {
				return errs.DeleteFailed(fmt.Errorf("batch delete %s: %w", entity, err))
			}
			deleted, _ = res.RowsAffected()
			return nil
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.logger.Info("batch delete completed",
		logging.WithField("entity", entity),
		logging.WithField("deleted", deleted))
	return deleted, nil
}

// Change is one row of the incremental-sync history.
type Change struct {
	Seq       int64     `json:"seq"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	Op        string    `json:"op"`
	ChangedAt time.Time `json:"changedAt"`
}

// ChangesSince returns change-log rows after seq, oldest first. The sync
// engine interprets them; the manager only guarantees they exist.
func (m *Manager) ChangesSince(ctx context.Context, seq int64) ([]Change, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT seq, entity, entity_id, op, changed_at FROM change_log WHERE seq > ? ORDER BY seq ASC`,
		seq,
	)
	if err != nil {
		return nil, errs.FetchFailed(fmt.Errorf("query change log: %w", err))
	}
	defer rows.Close()

	changes := make([]Change, 0)
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.Seq, &c.Entity, &c.EntityID, &c.Op, &c.ChangedAt); err != nil {
			return nil, errs.FetchFailed(fmt.Errorf("scan change row: %w", err))
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.FetchFailed(fmt.Errorf("iterate change log: %w", err))
	}

	return changes, nil
}

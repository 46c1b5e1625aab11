package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tmcnulty/quill/internal/logging"
	"github.com/tmcnulty/quill/internal/models"
	"github.com/tmcnulty/quill/internal/store"
)

// PreferencesRepository manages the single per-installation settings row.
type PreferencesRepository struct {
	mgr    *store.Manager
	logger *logging.Logger
}

func NewPreferencesRepository(mgr *store.Manager, logger *logging.Logger) *PreferencesRepository {
	return &PreferencesRepository{mgr: mgr, logger: logger}
}

// Get returns the preferences row, creating it with defaults on first use.
func (r *PreferencesRepository) Get(ctx context.Context) models.UserPreferences {
	var p models.UserPreferences
	var lastSync sql.NullTime

	err := r.mgr.DB().QueryRowContext(ctx,
		`SELECT id, sync_enabled, last_sync FROM user_preferences LIMIT 1`,
	).Scan(&p.ID, &p.SyncEnabled, &lastSync)

	switch {
	case err == sql.ErrNoRows:
		p = models.NewUserPreferences()
		r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
			_, err := tx.Exec(
				`INSERT INTO user_preferences (id, sync_enabled) VALUES (?, ?)`,
				p.ID, p.SyncEnabled)
			if err != nil {
				return fmt.Errorf("insert preferences: %w", err)
			}
			return nil
		})
		r.mgr.SaveIgnoringErrors(ctx)
		return p
	case err != nil:
		r.logger.Error("preferences lookup failed", logging.WithField("error", err.Error()))
		return models.NewUserPreferences()
	}

	if lastSync.Valid {
		t := lastSync.Time
		p.LastSync = &t
	}
	return p
}

// SetSyncEnabled flips the sync toggle.
func (r *PreferencesRepository) SetSyncEnabled(ctx context.Context, enabled bool) {
	p := r.Get(ctx)
	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE user_preferences SET sync_enabled = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, enabled, p.ID)
		if err != nil {
			return fmt.Errorf("update sync flag: %w", err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

// TouchLastSync records a completed sync pass.
func (r *PreferencesRepository) TouchLastSync(ctx context.Context, at time.Time) {
	p := r.Get(ctx)
	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE user_preferences SET last_sync = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, at, p.ID)
		if err != nil {
			return fmt.Errorf("update last sync: %w", err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

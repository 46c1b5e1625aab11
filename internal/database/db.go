// Package database owns the local sqlite store: connection setup, the
// versioned schema, and the migrations that create it. Change-history
// tracking for incremental sync is wired in here as triggers so it cannot be
// forgotten by callers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tmcnulty/quill/internal/errs"
)

// Schema version identifier pair. Both values are part of the on-disk
// contract: SchemaVersion moves with migrations, SchemaCompat is frozen and
// only changes when old stores can no longer be read at all.
const (
	SchemaVersion = "v1"
	SchemaCompat  = "2026-01"
)

// Config holds local store configuration.
type Config struct {
	// Path is the sqlite file location. ":memory:" opens a throwaway store.
	Path        string
	BusyTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		BusyTimeout: 5 * time.Second,
	}
}

// DB wraps the sql.DB connection to the local store file.
type DB struct {
	*sql.DB
	config Config
}

// New opens the store file, applies connection pragmas, validates the schema
// version pair, and runs migrations. Failures here are fatal at startup.
func New(config Config) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)",
		config.Path, config.BusyTimeout.Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// sqlite serializes writers itself; a single connection avoids lock
	// contention between pooled connections on the same file.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	d := &DB{DB: db, config: config}
	if err := d.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// Close closes the store connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// Migrate checks the schema version pair and applies the schema statements.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, migrationMeta); err != nil {
		return errs.MigrationFailed(fmt.Errorf("create schema_meta: %w", err))
	}

	if err := db.checkVersionPair(ctx); err != nil {
		return err
	}

	migrations := []string{
		migrationFeeds,
		migrationArticles,
		migrationPreferences,
		migrationChangeLog,
		migrationChangeTriggers,
		migrationIndexes,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return errs.MigrationFailed(fmt.Errorf("migration %d failed: %w", i+1, err))
		}
	}

	return nil
}

// checkVersionPair compares the stored identifier pair against the compiled
// constants, writing them on first run. A compat mismatch means the store
// predates what this build can migrate.
func (db *DB) checkVersionPair(ctx context.Context) error {
	var version, compat string
	err := db.QueryRowContext(ctx,
		`SELECT version, compat FROM schema_meta WHERE id = 1`,
	).Scan(&version, &compat)

	switch {
	case err == sql.ErrNoRows:
		_, err = db.ExecContext(ctx,
			`INSERT INTO schema_meta (id, version, compat) VALUES (1, ?, ?)`,
			SchemaVersion, SchemaCompat,
		)
		if err != nil {
			return errs.MigrationFailed(fmt.Errorf("record schema version: %w", err))
		}
		return nil
	case err != nil:
		return errs.MigrationFailed(fmt.Errorf("read schema version: %w", err))
	}

	if compat != SchemaCompat {
		return errs.MigrationFailed(fmt.Errorf(
			"store compat tag %q does not match %q", compat, SchemaCompat))
	}
	if version != SchemaVersion {
		// Future versions migrate forward here; v1 has nowhere to go yet.
		return errs.MigrationFailed(fmt.Errorf(
			"store schema %q has no migration path to %q", version, SchemaVersion))
	}
	return nil
}

// Migration SQL statements. Relationships are optional at the storage level
// (feed_id is nullable) so a record is constructible before all its fields
// arrive from the sync engine; the FK still cascades Feed deletion into its
// Articles.

const migrationMeta = `
CREATE TABLE IF NOT EXISTS schema_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version TEXT NOT NULL,
    compat TEXT NOT NULL
);
`

const migrationFeeds = `
CREATE TABLE IF NOT EXISTS feeds (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    subtitle TEXT,
    url TEXT NOT NULL,
    image_url TEXT,
    last_updated TIMESTAMP NOT NULL,
    last_fetched TIMESTAMP,
    category TEXT NOT NULL DEFAULT 'General',
    is_active INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0,
    update_interval_secs INTEGER NOT NULL DEFAULT 3600,
    etag TEXT,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationArticles = `
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    guid TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT,
    content TEXT,
    author TEXT,
    url TEXT NOT NULL,
    image_url TEXT,
    published_at TIMESTAMP NOT NULL,
    read_at TIMESTAMP,
    is_read INTEGER NOT NULL DEFAULT 0,
    is_starred INTEGER NOT NULL DEFAULT 0,
    reading_minutes INTEGER NOT NULL DEFAULT 5,
    content_hash TEXT NOT NULL,
    feed_id TEXT REFERENCES feeds(id) ON DELETE CASCADE,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationPreferences = `
CREATE TABLE IF NOT EXISTS user_preferences (
    id TEXT PRIMARY KEY,
    sync_enabled INTEGER NOT NULL DEFAULT 0,
    last_sync TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const migrationChangeLog = `
CREATE TABLE IF NOT EXISTS change_log (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    entity TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    op TEXT NOT NULL,
    changed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// The triggers keep the change log append-only for every tracked entity so
// the sync engine can compute incremental deltas without store cooperation.
const migrationChangeTriggers = `
CREATE TRIGGER IF NOT EXISTS feeds_log_insert AFTER INSERT ON feeds BEGIN
    INSERT INTO change_log (entity, entity_id, op) VALUES ('feed', NEW.id, 'insert');
END;
CREATE TRIGGER IF NOT EXISTS feeds_log_update AFTER UPDATE ON feeds BEGIN
    INSERT INTO change_log (entity, entity_id, op) VALUES ('feed', NEW.id, 'update');
END;
CREATE TRIGGER IF NOT EXISTS feeds_log_delete AFTER DELETE ON feeds BEGIN
    INSERT INTO change_log (entity, entity_id, op) VALUES ('feed', OLD.id, 'delete');
END;
CREATE TRIGGER IF NOT EXISTS articles_log_insert AFTER INSERT ON articles BEGIN
    INSERT INTO change_log (entity, entity_id, op) VALUES ('article', NEW.id, 'insert');
END;
CREATE TRIGGER IF NOT EXISTS articles_log_update AFTER UPDATE ON articles BEGIN
    INSERT INTO change_log (entity, entity_id, op) VALUES ('article', NEW.id, 'update');
END;
CREATE TRIGGER IF NOT EXISTS articles_log_delete AFTER DELETE ON articles BEGIN
    INSERT INTO change_log (entity, entity_id, op) VALUES ('article', OLD.id, 'delete');
END;
CREATE TRIGGER IF NOT EXISTS prefs_log_update AFTER UPDATE ON user_preferences BEGIN
    INSERT INTO change_log (entity, entity_id, op) VALUES ('preferences', NEW.id, 'update');
END;
`

const migrationIndexes = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_feeds_active_url ON feeds(url) WHERE is_active = 1;
CREATE INDEX IF NOT EXISTS idx_feeds_sort ON feeds(sort_order, title);
CREATE INDEX IF NOT EXISTS idx_articles_feed ON articles(feed_id);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_unread ON articles(is_read) WHERE is_read = 0;
CREATE INDEX IF NOT EXISTS idx_change_log_entity ON change_log(entity, entity_id);
`

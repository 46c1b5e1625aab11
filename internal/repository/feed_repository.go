// Package repository provides the typed query/command façade over the store
// manager. Read paths degrade to empty results on failure; write paths that
// create uniquely-keyed entities propagate their errors.
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

const feedColumns = `id, title, subtitle, url, image_url, last_updated, last_fetched,
	category, is_active, sort_order, update_interval_secs, etag`

// FeedRepository manages local feed rows.
type FeedRepository struct {
	mgr    *store.Manager
	logger *logging.Logger
}

func NewFeedRepository(mgr *store.Manager, logger *logging.Logger) *FeedRepository {
	return &FeedRepository{mgr: mgr, logger: logger}
}

// GetAllFeeds returns every feed ordered by sort order then title. Fetch
// failures degrade to an empty slice; absence of data beats crashing a
// read path.
func (r *FeedRepository) GetAllFeeds(ctx context.Context) []models.Feed {
	return r.queryFeeds(ctx,
		`SELECT `+feedColumns+` FROM feeds ORDER BY sort_order, title`)
}

// GetActiveFeeds returns active feeds in display order.
func (r *FeedRepository) GetActiveFeeds(ctx context.Context) []models.Feed {
	return r.queryFeeds(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE is_active = 1 ORDER BY sort_order, title`)
}

func (r *FeedRepository) queryFeeds(ctx context.Context, query string, args ...interface{}) []models.Feed {
	rows, err := r.mgr.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("feed query failed", logging.WithField("error", err.Error()))
		return []models.Feed{}
	}
	defer rows.Close()

	feeds := make([]models.Feed, 0)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			r.logger.Error("feed scan failed", logging.WithField("error", err.Error()))
			return []models.Feed{}
		}
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("feed iteration failed", logging.WithField("error", err.Error()))
		return []models.Feed{}
	}

	return feeds
}

// GetFeedByID returns at most one feed. Fetch failure reads as not found.
func (r *FeedRepository) GetFeedByID(ctx context.Context, id string) (models.Feed, bool) {
	return r.getFeed(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)
}

// GetFeedByURL returns the feed subscribed at url, if any.
func (r *FeedRepository) GetFeedByURL(ctx context.Context, url string) (models.Feed, bool) {
	return r.getFeed(ctx, `SELECT `+feedColumns+` FROM feeds WHERE url = ? LIMIT 1`, url)
}

func (r *FeedRepository) getFeed(ctx context.Context, query string, args ...interface{}) (models.Feed, bool) {
	row := r.mgr.DB().QueryRowContext(ctx, query, args...)
	f, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return models.Feed{}, false
	}
	if err != nil {
		r.logger.Error("feed lookup failed", logging.WithField("error", err.Error()))
		return models.Feed{}, false
	}
	return f, true
}

// AddFeed creates a local feed at the end of the active ordering and
// persists it, swallowing save errors. URL-collision checks stay with the
// caller; GetFeedByURL exists for that.
func (r *FeedRepository) AddFeed(ctx context.Context, title, url string, category models.FeedCategory, subtitle string) models.Feed {
	feed := models.NewFeed(title, url, category, subtitle)
	feed.SortOrder = r.activeCount(ctx)

	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO feeds (
				id, title, subtitle, url, image_url, last_updated, last_fetched,
				category, is_active, sort_order, update_interval_secs, etag
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			feed.ID, feed.Title, nullString(feed.Subtitle), feed.URL, nullString(feed.ImageURL),
			feed.LastUpdated, feed.LastFetched, string(feed.Category), feed.IsActive,
			feed.SortOrder, int64(feed.UpdateInterval.Seconds()), nullString(feed.ETag),
		)
		if err != nil {
			return fmt.Errorf("insert feed %s: %w", feed.ID, err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)

	return feed
}

// UpdateFeed rewrites a feed's mutable fields.
func (r *FeedRepository) UpdateFeed(ctx context.Context, feed models.Feed) {
	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE feeds SET
				title = ?, subtitle = ?, image_url = ?, last_updated = ?, last_fetched = ?,
				category = ?, is_active = ?, update_interval_secs = ?, etag = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			feed.Title, nullString(feed.Subtitle), nullString(feed.ImageURL),
			feed.LastUpdated, feed.LastFetched, string(feed.Category), feed.IsActive,
			int64(feed.UpdateInterval.Seconds()), nullString(feed.ETag), feed.ID,
		)
		if err != nil {
			return fmt.Errorf("update feed %s: %w", feed.ID, err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

// DeleteFeed removes the feed row; the schema cascades the delete into its
// articles.
func (r *FeedRepository) DeleteFeed(ctx context.Context, id string) {
	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM feeds WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete feed %s: %w", id, err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

// UpdateFeedOrder rewrites sort_order to the positional index of every feed
// in the supplied sequence. Reordering is a whole-sequence replace; when two
// reorders race, the last one wins.
func (r *FeedRepository) UpdateFeedOrder(ctx context.Context, feeds []models.Feed) {
	ids := make([]string, len(feeds))
	for i, f := range feeds {
		ids[i] = f.ID
	}

	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		for i, id := range ids {
			if _, err := tx.Exec(`UPDATE feeds SET sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, i, id); err != nil {
				return fmt.Errorf("reorder feed %s: %w", id, err)
			}
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

func (r *FeedRepository) activeCount(ctx context.Context) int {
	var count int
	err := r.mgr.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feeds WHERE is_active = 1`).Scan(&count)
	if err != nil {
		r.logger.Error("active feed count failed", logging.WithField("error", err.Error()))
		return 0
	}
	return count
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeed(row rowScanner) (models.Feed, error) {
	var f models.Feed
	var subtitle, imageURL, category, etag sql.NullString
	var lastFetched sql.NullTime
	var intervalSecs int64

	err := row.Scan(
		&f.ID, &f.Title, &subtitle, &f.URL, &imageURL,
		&f.LastUpdated, &lastFetched, &category, &f.IsActive,
		&f.SortOrder, &intervalSecs, &etag,
	)
	if err != nil {
		return models.Feed{}, err
	}

	f.Subtitle = subtitle.String
	f.ImageURL = imageURL.String
	f.Category = models.FeedCategory(category.String)
	f.ETag = etag.String
	f.UpdateInterval = time.Duration(intervalSecs) * time.Second
	if lastFetched.Valid {
		t := lastFetched.Time
		f.LastFetched = &t
	}

	return f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tmcnulty/quill/internal/models"
)

// Merge policy for changes arriving from the sync engine: property-level
// latest write wins, decided per row by updated_at. A remote change older
// than the local row leaves the local row untouched.

// AbsorbFeed queues a merge of a remotely-changed feed into the main
// context. remoteUpdated is the remote row's modification time.
func (m *Manager) AbsorbFeed(f models.Feed, remoteUpdated time.Time) {
	m.main.Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO feeds (
				id, title, subtitle, url, image_url,
				last_updated, last_fetched, category, is_active,
				sort_order, update_interval_secs, etag, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				title = excluded.title,
				subtitle = excluded.subtitle,
				url = excluded.url,
				image_url = excluded.image_url,
				last_updated = excluded.last_updated,
				last_fetched = excluded.last_fetched,
				category = excluded.category,
				is_active = excluded.is_active,
				sort_order = excluded.sort_order,
				update_interval_secs = excluded.update_interval_secs,
				etag = excluded.etag,
				updated_at = excluded.updated_at
			WHERE feeds.updated_at <= excluded.updated_at`,
			f.ID, f.Title, nullable(f.Subtitle), f.URL, nullable(f.ImageURL),
			f.LastUpdated, f.LastFetched, string(f.Category), f.IsActive,
			f.SortOrder, int64(f.UpdateInterval.Seconds()), nullable(f.ETag), remoteUpdated,
		)
		if err != nil {
			return fmt.Errorf("absorb feed %s: %w", f.ID, err)
		}
		return nil
	})
}

// AbsorbArticle queues a merge of a remotely-changed article into the main
// context. The feed reference may be empty when the owning feed has not
// synced yet; the row is still constructible.
func (m *Manager) AbsorbArticle(a models.Article, remoteUpdated time.Time) {
	m.main.Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO articles (
				id, guid, title, excerpt, content, author,
				url, image_url, published_at, read_at,
				is_read, is_starred, reading_minutes, content_hash,
				feed_id, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				guid = excluded.guid,
				title = excluded.title,
				excerpt = excluded.excerpt,
				content = excluded.content,
				author = excluded.author,
				url = excluded.url,
				image_url = excluded.image_url,
				published_at = excluded.published_at,
				read_at = excluded.read_at,
				is_read = excluded.is_read,
				is_starred = excluded.is_starred,
				reading_minutes = excluded.reading_minutes,
				content_hash = excluded.content_hash,
				feed_id = excluded.feed_id,
				updated_at = excluded.updated_at
			WHERE articles.updated_at <= excluded.updated_at`,
			a.ID, a.GUID, a.Title, nullable(a.Excerpt), nullable(a.Content), nullable(a.Author),
			a.URL, nullable(a.ImageURL), a.PublishedAt, a.ReadAt,
			a.IsRead, a.IsStarred, a.ReadingMinutes, a.ContentHash,
			nullable(a.FeedID), remoteUpdated,
		)
		if err != nil {
			return fmt.Errorf("absorb article %s: %w", a.ID, err)
		}
		return nil
	})
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

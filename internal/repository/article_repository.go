package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tmcnulty/quill/internal/errs"
	"github.com/tmcnulty/quill/internal/logging"
	"github.com/tmcnulty/quill/internal/models"
	"github.com/tmcnulty/quill/internal/store"
)

const articleColumns = `id, guid, title, excerpt, content, author, url, image_url,
	published_at, read_at, is_read, is_starred, reading_minutes, content_hash, feed_id`

// ArticleRepository manages local article rows. Guid uniqueness is global:
// GetArticleByGUID carries no feed filter, so the insert check matches.
type ArticleRepository struct {
	mgr    *store.Manager
	logger *logging.Logger
}

func NewArticleRepository(mgr *store.Manager, logger *logging.Logger) *ArticleRepository {
	return &ArticleRepository{mgr: mgr, logger: logger}
}

// GetArticleByGUID returns the article with the given guid, if present.
func (r *ArticleRepository) GetArticleByGUID(ctx context.Context, guid string) (models.Article, bool) {
	row := r.mgr.DB().QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE guid = ?`, guid)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return models.Article{}, false
	}
	if err != nil {
		r.logger.Error("article lookup failed", logging.WithField("error", err.Error()))
		return models.Article{}, false
	}
	return a, true
}

// AddArticle inserts a new article. An existing guid fails with
// DuplicateEntry instead of silently duplicating, and save failures
// propagate: article ingestion is a write path whose success the caller
// needs to know.
func (r *ArticleRepository) AddArticle(ctx context.Context, params models.ArticleParams) (models.Article, error) {
	if _, exists := r.GetArticleByGUID(ctx, params.GUID); exists {
		return models.Article{}, errs.DuplicateEntry(params.GUID)
	}

	article := models.NewArticle(params)

	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO articles (
				id, guid, title, excerpt, content, author, url, image_url,
				published_at, read_at, is_read, is_starred, reading_minutes,
				content_hash, feed_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			article.ID, article.GUID, article.Title, nullString(article.Excerpt),
			nullString(article.Content), nullString(article.Author), article.URL,
			nullString(article.ImageURL), article.PublishedAt, article.ReadAt,
			article.IsRead, article.IsStarred, article.ReadingMinutes,
			article.ContentHash, nullString(article.FeedID),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return errs.DuplicateEntry(article.GUID)
			}
			return fmt.Errorf("insert article %s: %w", article.ID, err)
		}
		return nil
	})

	if err := r.mgr.Save(ctx); err != nil {
		return models.Article{}, err
	}

	return article, nil
}

// GetArticlesByFeed returns a feed's articles, newest first.
func (r *ArticleRepository) GetArticlesByFeed(ctx context.Context, feedID string) []models.Article {
	rows, err := r.mgr.DB().QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE feed_id = ? ORDER BY published_at DESC`,
		feedID)
	if err != nil {
		r.logger.Error("article query failed", logging.WithField("error", err.Error()))
		return []models.Article{}
	}
	defer rows.Close()
	return r.collect(rows)
}

// MarkAsRead sets the read flag, recording the read date only on the first
// transition to read.
func (r *ArticleRepository) MarkAsRead(ctx context.Context, id string) {
	now := time.Now().UTC()
	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE articles SET is_read = 1, read_at = COALESCE(read_at, ?),
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, now, id)
		if err != nil {
			return fmt.Errorf("mark read %s: %w", id, err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

// ToggleStarred flips the starred flag.
func (r *ArticleRepository) ToggleStarred(ctx context.Context, id string) {
	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE articles SET is_starred = NOT is_starred,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("toggle starred %s: %w", id, err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

// DeleteArticle removes a single article row.
func (r *ArticleRepository) DeleteArticle(ctx context.Context, id string) {
	r.mgr.Main().Enqueue(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM articles WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete article %s: %w", id, err)
		}
		return nil
	})
	r.mgr.SaveIgnoringErrors(ctx)
}

// SearchArticles matches query as a case- and diacritic-insensitive
// substring over title, content, and author, restricted to articles of
// active feeds, newest first, capped at limit.
func (r *ArticleRepository) SearchArticles(ctx context.Context, query string, limit int) []models.Article {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Article{}
	}

	rows, err := r.mgr.DB().QueryContext(ctx, `
		SELECT `+qualify(articleColumns, "a")+`
		FROM articles a
		JOIN feeds f ON f.id = a.feed_id
		WHERE f.is_active = 1
		ORDER BY a.published_at DESC`)
	if err != nil {
		r.logger.Error("article search failed", logging.WithField("error", err.Error()))
		return []models.Article{}
	}
	defer rows.Close()

	needle := foldString(query)
	matches := make([]models.Article, 0, limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			r.logger.Error("article scan failed", logging.WithField("error", err.Error()))
			return []models.Article{}
		}
		haystack := foldString(a.Title + " " + a.Content + " " + a.Author)
		if strings.Contains(haystack, needle) {
			matches = append(matches, a)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("article search iteration failed", logging.WithField("error", err.Error()))
		return []models.Article{}
	}

	return matches
}

// UnreadCount returns the number of unread articles, 0 on failure.
func (r *ArticleRepository) UnreadCount(ctx context.Context) int {
	return r.count(ctx, `SELECT COUNT(*) FROM articles WHERE is_read = 0`)
}

// StarredCount returns the number of starred articles, 0 on failure.
func (r *ArticleRepository) StarredCount(ctx context.Context) int {
	return r.count(ctx, `SELECT COUNT(*) FROM articles WHERE is_starred = 1`)
}

func (r *ArticleRepository) count(ctx context.Context, query string) int {
	var n int
	if err := r.mgr.DB().QueryRowContext(ctx, query).Scan(&n); err != nil {
		r.logger.Error("article count failed", logging.WithField("error", err.Error()))
		return 0
	}
	return n
}

func (r *ArticleRepository) collect(rows *sql.Rows) []models.Article {
	articles := make([]models.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			r.logger.Error("article scan failed", logging.WithField("error", err.Error()))
			return []models.Article{}
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("article iteration failed", logging.WithField("error", err.Error()))
		return []models.Article{}
	}
	return articles
}

func scanArticle(row rowScanner) (models.Article, error) {
	var a models.Article
	var excerpt, body, author, imageURL, feedID sql.NullString
	var readAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.GUID, &a.Title, &excerpt, &body, &author, &a.URL, &imageURL,
		&a.PublishedAt, &readAt, &a.IsRead, &a.IsStarred, &a.ReadingMinutes,
		&a.ContentHash, &feedID,
	)
	if err != nil {
		return models.Article{}, err
	}

	a.Excerpt = excerpt.String
	a.Content = body.String
	a.Author = author.String
	a.ImageURL = imageURL.String
	a.FeedID = feedID.String
	if readAt.Valid {
		t := readAt.Time
		a.ReadAt = &t
	}

	return a, nil
}

// foldTransformer strips combining marks after NFD decomposition, so "café"
// and "cafe" compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldString(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// qualify prefixes every column in a comma-separated list with a table
// alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

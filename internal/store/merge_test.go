package store

import (
	"context"
	"testing"
	"time"

	"github.com/tmcnulty/quill/internal/models"
)

func absorbedFeedTitle(t *testing.T, m *Manager, id string) string {
	t.Helper()
	var title string
	if err := m.DB().QueryRow(`SELECT title FROM feeds WHERE id = ?`, id).Scan(&title); err != nil {
		t.Fatalf("read feed %s: %v", id, err)
	}
	return title
}

func TestAbsorbFeedLatestWriteWins(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	feed := models.NewFeed("Original", "https://example.com/feed", "", "")

	m.AbsorbFeed(feed, base)
	if err := m.Save(ctx); err != nil {
		t.Fatalf("initial absorb: %v", err)
	}

	// A remote change older than the stored row leaves it untouched.
	stale := feed
	stale.Title = "Stale"
	m.AbsorbFeed(stale, base.Add(-time.Hour))
	if err := m.Save(ctx); err != nil {
		t.Fatalf("stale absorb: %v", err)
	}
	if got := absorbedFeedTitle(t, m, feed.ID); got != "Original" {
		t.Errorf("title = %q after stale absorb, want %q", got, "Original")
	}

	// A newer remote change replaces it.
	fresh := feed
	fresh.Title = "Fresh"
	m.AbsorbFeed(fresh, base.Add(time.Hour))
	if err := m.Save(ctx); err != nil {
		t.Fatalf("fresh absorb: %v", err)
	}
	if got := absorbedFeedTitle(t, m, feed.ID); got != "Fresh" {
		t.Errorf("title = %q after fresh absorb, want %q", got, "Fresh")
	}
}

func TestAbsorbArticleLatestWriteWins(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	article := models.NewArticle(models.ArticleParams{
		GUID:  "g1",
		Title: "Title",
		URL:   "https://example.com/a",
	})

	m.AbsorbArticle(article, base)
	if err := m.Save(ctx); err != nil {
		t.Fatalf("initial absorb: %v", err)
	}

	// The remote side marked it read later than our copy changed.
	read := article
	read.IsRead = true
	m.AbsorbArticle(read, base.Add(time.Minute))
	if err := m.Save(ctx); err != nil {
		t.Fatalf("read absorb: %v", err)
	}

	var isRead bool
	if err := m.DB().QueryRow(`SELECT is_read FROM articles WHERE id = ?`, article.ID).Scan(&isRead); err != nil {
		t.Fatalf("read article: %v", err)
	}
	if !isRead {
		t.Errorf("is_read = false after newer remote change, want true")
	}

	// A stale unread flag from before the read does not revert it.
	unread := article
	m.AbsorbArticle(unread, base.Add(-time.Minute))
	if err := m.Save(ctx); err != nil {
		t.Fatalf("stale absorb: %v", err)
	}
	if err := m.DB().QueryRow(`SELECT is_read FROM articles WHERE id = ?`, article.ID).Scan(&isRead); err != nil {
		t.Fatalf("read article: %v", err)
	}
	if !isRead {
		t.Errorf("stale remote change reverted the read flag")
	}
}

func TestAbsorbArticleWithoutFeedReference(t *testing.T) {
	m := newTestManager(t)

	// An article can arrive before its owning feed has synced.
	orphan := models.NewArticle(models.ArticleParams{
		GUID:  "g-orphan",
		Title: "Unattached",
		URL:   "https://example.com/o",
	})
	m.AbsorbArticle(orphan, time.Now().UTC())
	if err := m.Save(context.Background()); err != nil {
		t.Fatalf("absorb without feed: %v", err)
	}

	var feedID interface{}
	if err := m.DB().QueryRow(`SELECT feed_id FROM articles WHERE id = ?`, orphan.ID).Scan(&feedID); err != nil {
		t.Fatalf("read article: %v", err)
	}
	if feedID != nil {
		t.Errorf("feed_id = %v, want NULL", feedID)
	}
}

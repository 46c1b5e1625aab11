package repository

import (
	"context"
	"testing"
	"time"

	"github.com/tmcnulty/quill/internal/errs"
	"github.com/tmcnulty/quill/internal/models"
)

func seedFeed(t *testing.T, feeds *FeedRepository) models.Feed {
	t.Helper()
	return feeds.AddFeed(context.Background(), "Example", "https://example.com/feed", "", "")
}

func TestAddArticleRejectsDuplicateGUID(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()
	f := seedFeed(t, feeds)

	params := models.ArticleParams{
		GUID:   "g1",
		Title:  "First",
		URL:    "https://example.com/a",
		FeedID: f.ID,
	}
	if _, err := articles.AddArticle(ctx, params); err != nil {
		t.Fatalf("AddArticle() = %v", err)
	}

	params.Title = "Second"
	_, err := articles.AddArticle(ctx, params)
	if !errs.IsCode(err, errs.CodeDuplicateEntry) {
		t.Fatalf("AddArticle(duplicate guid) = %v, want DuplicateEntry", err)
	}

	// The first article is untouched.
	got, ok := articles.GetArticleByGUID(ctx, "g1")
	if !ok || got.Title != "First" {
		t.Errorf("existing article = %v/%v, want the original untouched", got.Title, ok)
	}
}

func TestGetArticlesByFeedNewestFirst(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()
	f := seedFeed(t, feeds)

	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for _, a := range []struct {
		guid string
		at   time.Time
	}{
		{"old", older},
		{"new", newer},
	} {
		at := a.at
		_, err := articles.AddArticle(ctx, models.ArticleParams{
			GUID:        a.guid,
			Title:       a.guid,
			URL:         "https://example.com/" + a.guid,
			PublishedAt: &at,
			FeedID:      f.ID,
		})
		if err != nil {
			t.Fatalf("AddArticle(%s) = %v", a.guid, err)
		}
	}

	got := articles.GetArticlesByFeed(ctx, f.ID)
	if len(got) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(got))
	}
	if got[0].GUID != "new" || got[1].GUID != "old" {
		t.Errorf("order = [%s, %s], want newest first", got[0].GUID, got[1].GUID)
	}
}

func TestMarkAsReadSetsReadDateOnce(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()
	f := seedFeed(t, feeds)

	added, err := articles.AddArticle(ctx, models.ArticleParams{
		GUID: "g1", Title: "A", URL: "https://example.com/a", FeedID: f.ID,
	})
	if err != nil {
		t.Fatalf("AddArticle() = %v", err)
	}

	articles.MarkAsRead(ctx, added.ID)
	first, _ := articles.GetArticleByGUID(ctx, "g1")
	if !first.IsRead || first.ReadAt == nil {
		t.Fatalf("article not marked read: read=%v readAt=%v", first.IsRead, first.ReadAt)
	}

	// A second mark keeps the original read date.
	time.Sleep(10 * time.Millisecond)
	articles.MarkAsRead(ctx, added.ID)
	second, _ := articles.GetArticleByGUID(ctx, "g1")
	if second.ReadAt == nil || !second.ReadAt.Equal(*first.ReadAt) {
		t.Errorf("ReadAt changed on repeat mark: %v vs %v", second.ReadAt, first.ReadAt)
	}
}

func TestToggleStarred(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()
	f := seedFeed(t, feeds)

	added, err := articles.AddArticle(ctx, models.ArticleParams{
		GUID: "g1", Title: "A", URL: "https://example.com/a", FeedID: f.ID,
	})
	if err != nil {
		t.Fatalf("AddArticle() = %v", err)
	}

	articles.ToggleStarred(ctx, added.ID)
	if got, _ := articles.GetArticleByGUID(ctx, "g1"); !got.IsStarred {
		t.Errorf("IsStarred = false after first toggle")
	}
	articles.ToggleStarred(ctx, added.ID)
	if got, _ := articles.GetArticleByGUID(ctx, "g1"); got.IsStarred {
		t.Errorf("IsStarred = true after second toggle")
	}
}

func TestDeleteArticle(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()
	f := seedFeed(t, feeds)

	added, err := articles.AddArticle(ctx, models.ArticleParams{
		GUID: "g1", Title: "A", URL: "https://example.com/a", FeedID: f.ID,
	})
	if err != nil {
		t.Fatalf("AddArticle() = %v", err)
	}

	articles.DeleteArticle(ctx, added.ID)
	if _, ok := articles.GetArticleByGUID(ctx, "g1"); ok {
		t.Errorf("article still present after delete")
	}
}

func TestSearchArticles(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()

	active := feeds.AddFeed(ctx, "Active", "https://a.example.com/feed", "", "")
	dormant := feeds.AddFeed(ctx, "Dormant", "https://b.example.com/feed", "", "")
	dormant.IsActive = false
	feeds.UpdateFeed(ctx, dormant)

	add := func(guid, title, body, author, feedID string) {
		t.Helper()
		_, err := articles.AddArticle(ctx, models.ArticleParams{
			GUID: guid, Title: title, Content: body, Author: author,
			URL: "https://example.com/" + guid, FeedID: feedID,
		})
		if err != nil {
			t.Fatalf("AddArticle(%s) = %v", guid, err)
		}
	}
	add("g1", "Café culture in Lisbon", "", "", active.ID)
	add("g2", "Weather report", "nothing about coffee houses", "", active.ID)
	add("g3", "Written by Renée", "", "Renée Dubois", active.ID)
	add("g4", "Cafe guide from a dormant feed", "", "", dormant.ID)

	tests := []struct {
		name      string
		query     string
		wantGUIDs []string
	}{
		{"diacritic-insensitive title match", "cafe", []string{"g1"}},
		{"accented query matches plain text", "Renée", []string{"g3"}},
		{"content match", "coffee", []string{"g2"}},
		{"author match", "dubois", []string{"g3"}},
		{"blank query", "   ", nil},
		{"no match", "zebra", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := articles.SearchArticles(ctx, tt.query, 10)
			if len(got) != len(tt.wantGUIDs) {
				t.Fatalf("SearchArticles(%q) returned %d results, want %d", tt.query, len(got), len(tt.wantGUIDs))
			}
			for i, want := range tt.wantGUIDs {
				if got[i].GUID != want {
					t.Errorf("result[%d] = %s, want %s", i, got[i].GUID, want)
				}
			}
		})
	}
}

func TestSearchArticlesHonorsLimit(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()
	f := seedFeed(t, feeds)

	for i := 0; i < 5; i++ {
		at := time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC)
		_, err := articles.AddArticle(ctx, models.ArticleParams{
			GUID:        string(rune('a' + i)),
			Title:       "shared term",
			URL:         "https://example.com/" + string(rune('a'+i)),
			PublishedAt: &at,
			FeedID:      f.ID,
		})
		if err != nil {
			t.Fatalf("AddArticle: %v", err)
		}
	}

	got := articles.SearchArticles(ctx, "shared", 2)
	if len(got) != 2 {
		t.Fatalf("len(results) = %d, want limit 2", len(got))
	}
	// Newest first within the cap.
	if !got[0].PublishedAt.After(got[1].PublishedAt) {
		t.Errorf("results not newest first: %v, %v", got[0].PublishedAt, got[1].PublishedAt)
	}
}

func TestUnreadAndStarredCounts(t *testing.T) {
	feeds, articles := newTestRepos(t)
	ctx := context.Background()
	f := seedFeed(t, feeds)

	var ids []string
	for _, guid := range []string{"g1", "g2", "g3"} {
		a, err := articles.AddArticle(ctx, models.ArticleParams{
			GUID: guid, Title: guid, URL: "https://example.com/" + guid, FeedID: f.ID,
		})
		if err != nil {
			t.Fatalf("AddArticle(%s) = %v", guid, err)
		}
		ids = append(ids, a.ID)
	}

	articles.MarkAsRead(ctx, ids[0])
	articles.ToggleStarred(ctx, ids[1])

	if got := articles.UnreadCount(ctx); got != 2 {
		t.Errorf("UnreadCount() = %d, want 2", got)
	}
	if got := articles.StarredCount(ctx); got != 1 {
		t.Errorf("StarredCount() = %d, want 1", got)
	}
}

// Package syndication adapts the outputs of the external collaborators —
// the feed-format parser's normalized items and the fetch transport's
// results — into the shapes the store and public cache consume. Parsing
// itself happens elsewhere.
package syndication

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tmcnulty/quill/internal/models"
)

// ArticleParams maps a normalized feed item to local-store add parameters.
// A missing guid falls back to the item link so every item stays
// addressable.
func ArticleParams(feedID string, item *gofeed.Item) models.ArticleParams {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}

	return models.ArticleParams{
		GUID:        guid,
		Title:       strings.TrimSpace(item.Title),
		Excerpt:     strings.TrimSpace(item.Description),
		Content:     item.Content,
		Author:      itemAuthor(item),
		URL:         item.Link,
		ImageURL:    itemImage(item),
		PublishedAt: item.PublishedParsed,
		FeedID:      feedID,
	}
}

// CachedArticle maps a normalized feed item to its public-cache value.
func CachedArticle(feedURL string, item *gofeed.Item, fetchedAt time.Time) models.CachedArticle {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	a := models.NewCachedArticle(feedURL, guid, strings.TrimSpace(item.Title), item.Link, body, fetchedAt)
	a.Excerpt = strings.TrimSpace(item.Description)
	a.Author = itemAuthor(item)
	a.ImageURL = itemImage(item)
	a.PublishedAt = item.PublishedParsed
	a.Tags = item.Categories
	return a
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil {
		return item.Image.URL
	}
	return ""
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tmcnulty/quill/internal/content"
)

// DefaultReadingMinutes is the estimate used when an article arrives without
// body text to measure.
const DefaultReadingMinutes = 5

// Article is a local store entry for one feed item.
type Article struct {
	ID             string     `json:"id"`
	GUID           string     `json:"guid"`
	Title          string     `json:"title"`
	Excerpt        string     `json:"excerpt,omitempty"`
	Content        string     `json:"content,omitempty"`
	Author         string     `json:"author,omitempty"`
	URL            string     `json:"url"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	PublishedAt    time.Time  `json:"publishedAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	IsRead         bool       `json:"isRead"`
	IsStarred      bool       `json:"isStarred"`
	ReadingMinutes int        `json:"readingMinutes"`
	ContentHash    string     `json:"contentHash"`
	FeedID         string     `json:"feedId,omitempty"`
}

// ArticleParams carries the inputs for creating an Article; optional fields
// stay zero.
type ArticleParams struct {
	GUID        string
	Title       string
	Excerpt     string
	Content     string
	Author      string
	URL         string
	ImageURL    string
	PublishedAt *time.Time
	FeedID      string
}

// NewArticle creates an article with defaults applied: the publish date
// falls back to now, and the reading estimate comes from the body text when
// there is any.
func NewArticle(p ArticleParams) Article {
	published := time.Now().UTC()
	if p.PublishedAt != nil {
		published = *p.PublishedAt
	}

	minutes := DefaultReadingMinutes
	if p.Content != "" {
		minutes = content.ReadingMinutes(content.WordCount(content.ExtractPlainText(p.Content)))
	}

	return Article{
		ID:             uuid.NewString(),
		GUID:           p.GUID,
		Title:          p.Title,
		Excerpt:        p.Excerpt,
		Content:        p.Content,
		Author:         p.Author,
		URL:            p.URL,
		ImageURL:       p.ImageURL,
		PublishedAt:    published,
		ReadingMinutes: minutes,
		ContentHash:    content.Hash(p.Title, p.URL, p.GUID),
		FeedID:         p.FeedID,
	}
}

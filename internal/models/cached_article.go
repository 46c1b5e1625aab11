package models

import (
	"time"

	"github.com/tmcnulty/quill/internal/content"
)

// DefaultArticleTTLDays is how long a cache article stays valid when the
// record carries no explicit TTL.
const DefaultArticleTTLDays = 30

// CachedArticle is a public cache record for one feed item, keyed by
// (FeedURL, GUID) until the server assigns a RecordName. The content hash
// identifies the article for deduplication only; it says nothing about body
// integrity.
type CachedArticle struct {
	RecordName string `json:"recordName,omitempty"`
	FeedURL    string `json:"feedUrl"`
	GUID       string `json:"guid"`

	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt,omitempty"`
	Content   string   `json:"content,omitempty"`
	PlainText string   `json:"plainText,omitempty"`
	Author    string   `json:"author,omitempty"`
	URL       string   `json:"url"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	Language  string   `json:"language,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	FetchedAt   time.Time  `json:"fetchedAt"`
	TTLDays     int        `json:"ttlDays"`

	ContentHash    string `json:"contentHash"`
	WordCount      *int   `json:"wordCount,omitempty"`
	ReadingMinutes *int   `json:"readingMinutes,omitempty"`

	ChangeTag string `json:"-"`
}

// NewCachedArticle builds a cache article from raw item fields, deriving the
// plain-text projection, hash, and reading stats.
func NewCachedArticle(feedURL, guid, title, url, body string, fetchedAt time.Time) CachedArticle {
	a := CachedArticle{
		FeedURL:     feedURL,
		GUID:        guid,
		Title:       title,
		Content:     body,
		URL:         url,
		FetchedAt:   fetchedAt,
		TTLDays:     DefaultArticleTTLDays,
		ContentHash: content.Hash(title, url, guid),
	}
	if body != "" {
		a.PlainText = content.ExtractPlainText(body)
	}
	a.DeriveReadingStats()
	return a
}

// DeriveReadingStats fills the word count from the plain-text projection
// when absent, then the reading estimate from the word count. Explicit
// values are respected; a zero word count yields no reading estimate.
func (a *CachedArticle) DeriveReadingStats() {
	if a.WordCount == nil && a.PlainText != "" {
		wc := content.WordCount(a.PlainText)
		a.WordCount = &wc
	}
	if a.ReadingMinutes == nil && a.WordCount != nil && *a.WordCount > 0 {
		rm := content.ReadingMinutes(*a.WordCount)
		a.ReadingMinutes = &rm
	}
}

// ExpiresAt is the fetch time plus the TTL in whole days.
func (a *CachedArticle) ExpiresAt() time.Time {
	ttl := a.TTLDays
	if ttl <= 0 {
		ttl = DefaultArticleTTLDays
	}
	return a.FetchedAt.Add(time.Duration(ttl) * 24 * time.Hour)
}

// IsExpired reports whether now is strictly past the expiry instant.
func (a *CachedArticle) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt())
}

// IsDuplicate reports whether two cache articles carry the same dedup
// identity. Articles with no hash never match anything.
func (a *CachedArticle) IsDuplicate(other *CachedArticle) bool {
	if other == nil || a.ContentHash == "" {
		return false
	}
	return a.ContentHash == other.ContentHash
}

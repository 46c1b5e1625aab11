// Package publiccache converts between the domain cache types and their
// remote record representation, and owns the dedup/TTL rules applied on the
// way in. The public cache is shared across all users, so nothing read from
// a record is trusted where recomputing is cheap: the content hash is always
// rebuilt from the identity fields.
package publiccache

import (
	"time"

	"github.com/tmcnulty/quill/internal/content"
	"github.com/tmcnulty/quill/internal/errs"
	"github.com/tmcnulty/quill/internal/models"
	"github.com/tmcnulty/quill/internal/remote"
)

// Zone is the shared partition holding public cache records, distinct from
// the private sync zones.
const Zone = "public"

// ArticleRecordName derives the key for an article not yet named by the
// server.
func ArticleRecordName(feedURL, guid string) string {
	return feedURL + "|" + guid
}

// ArticleFromRecord builds a cache article from a remote record. Feed
// reference, guid, title, and URL are required; everything else defaults.
func ArticleFromRecord(rec remote.Record) (models.CachedArticle, error) {
	for _, required := range []string{"feedUrl", "guid", "title", "url"} {
		if stringField(rec.Fields, required) == "" {
			return models.CachedArticle{}, errs.MissingRequiredField(required)
		}
	}

	a := models.CachedArticle{
		RecordName: rec.Name,
		FeedURL:    stringField(rec.Fields, "feedUrl"),
		GUID:       stringField(rec.Fields, "guid"),
		Title:      stringField(rec.Fields, "title"),
		Excerpt:    stringField(rec.Fields, "excerpt"),
		Content:    stringField(rec.Fields, "content"),
		PlainText:  stringField(rec.Fields, "plainText"),
		Author:     stringField(rec.Fields, "author"),
		URL:        stringField(rec.Fields, "url"),
		ImageURL:   stringField(rec.Fields, "imageUrl"),
		Language:   stringField(rec.Fields, "language"),
		Tags:       stringsField(rec.Fields, "tags"),
		ChangeTag:  rec.ChangeTag,
	}

	if published, ok := timeField(rec.Fields, "publishedAt"); ok {
		a.PublishedAt = &published
	}
	if fetched, ok := timeField(rec.Fields, "fetchedAt"); ok {
		a.FetchedAt = fetched
	} else {
		a.FetchedAt = time.Now().UTC()
	}

	a.TTLDays = deriveTTL(rec.Fields, a.FetchedAt)

	if a.PlainText == "" && a.Content != "" {
		a.PlainText = content.ExtractPlainText(a.Content)
	}

	// Never trust the inbound hash: a stale or malicious record must not be
	// able to spoof dedup identity.
	a.ContentHash = content.Hash(a.Title, a.URL, a.GUID)

	if wc := intField(rec.Fields, "wordCount", -1); wc >= 0 {
		a.WordCount = &wc
	}
	if rm := intField(rec.Fields, "readingMinutes", -1); rm >= 0 {
		a.ReadingMinutes = &rm
	}
	a.DeriveReadingStats()

	return a, nil
}

// deriveTTL reads an explicit ttlDays field, falls back to back-deriving
// whole days from (expiresAt - fetchedAt) floored to at least 1, and
// defaults to 30 days when no expiry is present.
func deriveTTL(fields map[string]interface{}, fetchedAt time.Time) int {
	if ttl := intField(fields, "ttlDays", 0); ttl > 0 {
		return ttl
	}
	if expires, ok := timeField(fields, "expiresAt"); ok {
		days := int(expires.Sub(fetchedAt).Hours() / 24)
		if days < 1 {
			days = 1
		}
		return days
	}
	return models.DefaultArticleTTLDays
}

// ArticleToRecord projects a cache article field-by-field into its record
// shape. The projection is stable so optimistic-concurrency diffs stay
// minimal.
func ArticleToRecord(a models.CachedArticle) remote.Record {
	name := a.RecordName
	if name == "" {
		name = ArticleRecordName(a.FeedURL, a.GUID)
	}

	fields := map[string]interface{}{
		"feedUrl":     a.FeedURL,
		"guid":        a.GUID,
		"title":       a.Title,
		"excerpt":     a.Excerpt,
		"content":     a.Content,
		"plainText":   a.PlainText,
		"author":      a.Author,
		"url":         a.URL,
		"imageUrl":    a.ImageURL,
		"fetchedAt":   a.FetchedAt.UTC().Format(time.RFC3339),
		"expiresAt":   a.ExpiresAt().UTC().Format(time.RFC3339),
		"ttlDays":     a.TTLDays,
		"contentHash": a.ContentHash,
		"language":    a.Language,
		"tags":        a.Tags,
	}
	if a.PublishedAt != nil {
		fields["publishedAt"] = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	if a.WordCount != nil {
		fields["wordCount"] = *a.WordCount
	}
	if a.ReadingMinutes != nil {
		fields["readingMinutes"] = *a.ReadingMinutes
	}

	return remote.Record{
		Zone:      Zone,
		Type:      remote.RecordTypeArticle,
		Name:      name,
		Fields:    fields,
		ChangeTag: a.ChangeTag,
	}
}

// FeedFromRecord builds a cache feed from a remote record. The source URL
// and title are required; booleans default false except isActive, the
// quality score defaults to 50, and counters default to 0.
func FeedFromRecord(rec remote.Record) (models.CachedFeed, error) {
	for _, required := range []string{"url", "title"} {
		if stringField(rec.Fields, required) == "" {
			return models.CachedFeed{}, errs.MissingRequiredField(required)
		}
	}

	f := models.CachedFeed{
		URL:         stringField(rec.Fields, "url"),
		Title:       stringField(rec.Fields, "title"),
		Description: stringField(rec.Fields, "description"),
		Category:    stringField(rec.Fields, "category"),
		Tags:        stringsField(rec.Fields, "tags"),
		ImageURL:    stringField(rec.Fields, "imageUrl"),
		SiteURL:     stringField(rec.Fields, "siteUrl"),
		Language:    stringField(rec.Fields, "language"),

		Featured:     boolField(rec.Fields, "featured", false),
		Verified:     boolField(rec.Fields, "verified", false),
		QualityScore: intField(rec.Fields, "qualityScore", models.DefaultQualityScore),

		SubscriberCount: intField(rec.Fields, "subscriberCount", 0),

		TotalAttempts:      intField(rec.Fields, "totalAttempts", 0),
		SuccessfulAttempts: intField(rec.Fields, "successfulAttempts", 0),
		FailureCount:       intField(rec.Fields, "failureCount", 0),
		LastFailureReason:  stringField(rec.Fields, "lastFailureReason"),

		ETag:         stringField(rec.Fields, "etag"),
		LastModified: stringField(rec.Fields, "lastModified"),

		IsActive:  boolField(rec.Fields, "isActive", true),
		ChangeTag: rec.ChangeTag,
	}

	if attempt, ok := timeField(rec.Fields, "lastFetchAttempt"); ok {
		f.LastFetchAttempt = &attempt
	}
	if secs := intField(rec.Fields, "minUpdateIntervalSecs", 0); secs > 0 {
		f.MinUpdateInterval = time.Duration(secs) * time.Second
	}

	return f, nil
}

// FeedToRecord projects a cache feed into its record shape, keyed by source
// URL.
func FeedToRecord(f models.CachedFeed) remote.Record {
	fields := map[string]interface{}{
		"url":         f.URL,
		"title":       f.Title,
		"description": f.Description,
		"category":    f.Category,
		"tags":        f.Tags,
		"imageUrl":    f.ImageURL,
		"siteUrl":     f.SiteURL,
		"language":    f.Language,

		"featured":     f.Featured,
		"verified":     f.Verified,
		"qualityScore": f.QualityScore,

		"subscriberCount": f.SubscriberCount,

		"totalAttempts":      f.TotalAttempts,
		"successfulAttempts": f.SuccessfulAttempts,
		"failureCount":       f.FailureCount,
		"lastFailureReason":  f.LastFailureReason,

		"etag":                  f.ETag,
		"lastModified":          f.LastModified,
		"minUpdateIntervalSecs": int(f.MinUpdateInterval.Seconds()),

		"isActive": f.IsActive,
	}
	if f.LastFetchAttempt != nil {
		fields["lastFetchAttempt"] = f.LastFetchAttempt.UTC().Format(time.RFC3339)
	}

	return remote.Record{
		Zone:      Zone,
		Type:      remote.RecordTypeFeed,
		Name:      f.URL,
		Fields:    fields,
		ChangeTag: f.ChangeTag,
	}
}

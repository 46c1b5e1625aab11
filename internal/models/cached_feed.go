package models

import (
	"time"
)

// Reliability thresholds for the public cache's fetch telemetry. A feed is
// healthy only while both hold.
const (
	maxConsecutiveFailures = 3
	minHealthySuccessRate  = 0.8
)

// DefaultQualityScore is the curation score assigned before any editorial
// signal exists.
const DefaultQualityScore = 50

// CachedFeed is a public cache record for a feed, keyed by source URL. It
// carries the presentation metadata shared across users plus the
// server-side fetch telemetry the scheduler reads. ChangeTag is the opaque
// optimistic-concurrency token from the record store.
type CachedFeed struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	SiteURL     string   `json:"siteUrl,omitempty"`
	Language    string   `json:"language,omitempty"`

	Featured     bool `json:"featured"`
	Verified     bool `json:"verified"`
	QualityScore int  `json:"qualityScore"`

	SubscriberCount int `json:"subscriberCount"`

	TotalAttempts      int        `json:"totalAttempts"`
	SuccessfulAttempts int        `json:"successfulAttempts"`
	LastFetchAttempt   *time.Time `json:"lastFetchAttempt,omitempty"`
	FailureCount       int        `json:"failureCount"`
	LastFailureReason  string     `json:"lastFailureReason,omitempty"`

	// Conditional-fetch tokens, passed through opaquely.
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`

	MinUpdateInterval time.Duration `json:"minUpdateInterval"`
	IsActive          bool          `json:"isActive"`

	ChangeTag string `json:"-"`
}

// SuccessRate is the fraction of fetch attempts that succeeded, 0.0 for a
// feed never attempted.
func (f *CachedFeed) SuccessRate() float64 {
	if f.TotalAttempts == 0 {
		return 0
	}
	return float64(f.SuccessfulAttempts) / float64(f.TotalAttempts)
}

// IsHealthy reports whether the feed is currently worth fetching eagerly.
// The rate comparison is strict: a feed sitting exactly at the floor is not
// healthy, and an untested feed is not healthy either.
func (f *CachedFeed) IsHealthy() bool {
	return f.FailureCount < maxConsecutiveFailures && f.SuccessRate() > minHealthySuccessRate
}

// UpdateDue reports whether the feed is eligible for a fetch at now. The
// effective interval is the larger of the server-advertised minimum and the
// local default; incrementing the attempt counters is the fetcher's job.
func (f *CachedFeed) UpdateDue(now time.Time) bool {
	if !f.IsActive {
		return false
	}
	if f.LastFetchAttempt == nil {
		return true
	}

	interval := DefaultUpdateInterval
	if f.MinUpdateInterval > interval {
		interval = f.MinUpdateInterval
	}
	return !now.Before(f.LastFetchAttempt.Add(interval))
}

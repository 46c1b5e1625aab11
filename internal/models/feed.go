// Package models holds the domain value types: local store entities, the
// public cache records, and the predicates derived from them. Everything
// here is a plain copy safe to pass across goroutines; ownership of the
// persisted rows stays with the store manager.
package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedCategory classifies a subscription for grouping in the reader.
type FeedCategory string

const (
	CategoryGeneral  FeedCategory = "General"
	CategoryNews     FeedCategory = "News"
	CategoryTech     FeedCategory = "Tech"
	CategoryScience  FeedCategory = "Science"
	CategoryBusiness FeedCategory = "Business"
	CategoryCulture  FeedCategory = "Culture"
	CategorySports   FeedCategory = "Sports"
)

// DefaultUpdateInterval is how often a feed is refetched absent a
// server-advertised interval.
const DefaultUpdateInterval = time.Hour

// Feed is a local subscription.
type Feed struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Subtitle       string        `json:"subtitle,omitempty"`
	URL            string        `json:"url"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	LastUpdated    time.Time     `json:"lastUpdated"`
	LastFetched    *time.Time    `json:"lastFetched,omitempty"`
	Category       FeedCategory  `json:"category"`
	IsActive       bool          `json:"isActive"`
	SortOrder      int           `json:"sortOrder"`
	UpdateInterval time.Duration `json:"updateInterval"`
	ETag           string        `json:"-"`
}

// NewFeed creates a feed with defaults applied. An empty category falls back
// to General.
func NewFeed(title, url string, category FeedCategory, subtitle string) Feed {
	if category == "" {
		category = CategoryGeneral
	}
	return Feed{
		ID:             uuid.NewString(),
		Title:          title,
		Subtitle:       subtitle,
		URL:            url,
		LastUpdated:    time.Now().UTC(),
		Category:       category,
		IsActive:       true,
		UpdateInterval: DefaultUpdateInterval,
	}
}

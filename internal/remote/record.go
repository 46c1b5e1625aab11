// Package remote models the remote store surface this app depends on:
// records with optimistic-concurrency change tags, named zones, and
// change-notification subscriptions. The sync engine that moves private
// data is an external collaborator; this package provisions what it needs
// and backs the shared public cache.
package remote

import "errors"

// Zone names. All three must exist before sync or subscription setup can
// succeed.
const (
	ZoneFeeds       = "feeds"
	ZoneArticles    = "articles"
	ZonePreferences = "preferences"
)

// Record types stored in the public cache.
const (
	RecordTypeFeed    = "Feed"
	RecordTypeArticle = "Article"
)

var (
	// ErrConflict means the supplied change tag no longer matches the
	// server's; the caller must re-fetch and retry with the fresh tag.
	ErrConflict = errors.New("record change tag conflict")
	// ErrNotFound means no record exists under the given key.
	ErrNotFound = errors.New("record not found")
)

// Record is the wire-shape of one remote row: a field map plus the opaque
// server-assigned change tag. Creates carry an empty tag; updates must carry
// the most recently observed one.
type Record struct {
	Zone      string                 `json:"zone"`
	Type      string                 `json:"type"`
	Name      string                 `json:"name"`
	Fields    map[string]interface{} `json:"fields"`
	ChangeTag string                 `json:"changeTag"`
}

// Notification is a change signal for one record, delivered silently
// (content-available, no user-facing alert).
type Notification struct {
	Zone   string `json:"zone"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Reason string `json:"reason"` // "save" or "delete"
}

package syndication

import (
	"time"

	"github.com/tmcnulty/quill/internal/models"
)

// FetchResult carries what the fetch transport observed for one attempt.
// Only these outputs cross into this core; the transport itself lives
// outside it.
type FetchResult struct {
	// NotModified marks a conditional request answered with 304.
	NotModified  bool
	ETag         string
	LastModified string
	Err          error
}

// Apply folds one fetch attempt into a cached feed's telemetry. This is the
// increment site; the health predicates on CachedFeed only read the
// counters. A 304 counts as a success that refreshes nothing.
func Apply(f *models.CachedFeed, res FetchResult, now time.Time) {
	f.TotalAttempts++
	f.LastFetchAttempt = &now

	if res.Err != nil {
		f.FailureCount++
		f.LastFailureReason = res.Err.Error()
		return
	}

	f.SuccessfulAttempts++
	f.FailureCount = 0
	f.LastFailureReason = ""
	if res.ETag != "" {
		f.ETag = res.ETag
	}
	if res.LastModified != "" {
		f.LastModified = res.LastModified
	}
}

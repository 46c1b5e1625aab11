package remote

import "context"

// RecordStore is the interface for remote record backends.
type RecordStore interface {
	// Save writes a record and returns it with the fresh server-assigned
	// change tag. Creating requires an empty tag; updating requires the
	// latest observed tag, otherwise ErrConflict.
	Save(ctx context.Context, rec Record) (Record, error)
	// Fetch returns the record under (zone, type, name), or ErrNotFound.
	Fetch(ctx context.Context, zone, recordType, name string) (Record, error)
	// Delete removes a record; deleting a missing record is a no-op.
	Delete(ctx context.Context, zone, recordType, name string) error
	// Query returns all records of one type within a zone.
	Query(ctx context.Context, zone, recordType string) ([]Record, error)

	// EnsureZone provisions a named zone; idempotent.
	EnsureZone(ctx context.Context, zone string) error
	// EnsureSubscription provisions the zone's change subscription;
	// idempotent.
	EnsureSubscription(ctx context.Context, zone string, sub SubscriptionConfig) error
}

// SubscriptionConfig describes how a zone's change subscription fires.
type SubscriptionConfig struct {
	// Silent requests a content-available push with no user-visible alert.
	Silent bool `json:"silent"`
}

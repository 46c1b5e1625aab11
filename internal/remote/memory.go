package remote

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory record store used by tests and offline runs.
type MemoryStore struct {
	mu      sync.RWMutex
	zones   map[string]bool
	subs    map[string]SubscriptionConfig
	records map[string]Record
	// notify receives one Notification per save/delete when set.
	notify chan Notification
}

// NewMemory creates an empty in-memory record store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		zones:   make(map[string]bool),
		subs:    make(map[string]SubscriptionConfig),
		records: make(map[string]Record),
	}
}

func recordKey(zone, recordType, name string) string {
	return zone + ":" + recordType + ":" + name
}

func (s *MemoryStore) Save(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(rec.Zone, rec.Type, rec.Name)
	existing, exists := s.records[key]

	if rec.ChangeTag == "" {
		if exists {
			return Record{}, ErrConflict
		}
	} else if !exists || existing.ChangeTag != rec.ChangeTag {
		return Record{}, ErrConflict
	}

	rec.ChangeTag = uuid.NewString()
	s.records[key] = rec
	s.publish(Notification{Zone: rec.Zone, Type: rec.Type, Name: rec.Name, Reason: "save"})
	return rec, nil
}

func (s *MemoryStore) Fetch(_ context.Context, zone, recordType, name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey(zone, recordType, name)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, zone, recordType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(zone, recordType, name)
	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	s.publish(Notification{Zone: zone, Type: recordType, Name: name, Reason: "delete"})
	return nil
}

func (s *MemoryStore) Query(_ context.Context, zone, recordType string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.Zone == zone && rec.Type == recordType {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) EnsureZone(_ context.Context, zone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[zone] = true
	return nil
}

func (s *MemoryStore) EnsureSubscription(_ context.Context, zone string, sub SubscriptionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[zone] = sub
	return nil
}

// HasZone reports whether zone was provisioned.
func (s *MemoryStore) HasZone(zone string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zones[zone]
}

// Subscription returns the zone's subscription config, if provisioned.
func (s *MemoryStore) Subscription(zone string) (SubscriptionConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[zone]
	return sub, ok
}

// Notifications returns a channel carrying one event per save/delete.
func (s *MemoryStore) Notifications() <-chan Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notify == nil {
		s.notify = make(chan Notification, 64)
	}
	return s.notify
}

func (s *MemoryStore) publish(n Notification) {
	if s.notify == nil {
		return
	}
	select {
	case s.notify <- n:
	default:
		// Slow consumers drop notifications rather than block writers.
	}
}

// Ensure MemoryStore implements RecordStore.
var _ RecordStore = (*MemoryStore)(nil)

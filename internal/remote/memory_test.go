package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/tmcnulty/quill/internal/testutil"
)

func testRecord(name string) Record {
	return Record{
		Zone: ZoneFeeds,
		Type: RecordTypeFeed,
		Name: name,
		Fields: map[string]interface{}{
			"title": "Example",
		},
	}
}

func TestMemorySaveAssignsChangeTag(t *testing.T) {
	s := NewMemory()

	saved, err := s.Save(context.Background(), testRecord("r1"))
	if err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if saved.ChangeTag == "" {
		t.Errorf("Save() returned no change tag")
	}
}

func TestMemorySaveConflicts(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	first, err := s.Save(ctx, testRecord("r1"))
	if err != nil {
		t.Fatalf("initial save: %v", err)
	}

	// Creating again with an empty tag conflicts.
	if _, err := s.Save(ctx, testRecord("r1")); !errors.Is(err, ErrConflict) {
		t.Errorf("re-create = %v, want ErrConflict", err)
	}

	// Updating with the current tag succeeds and rotates the tag.
	update := testRecord("r1")
	update.ChangeTag = first.ChangeTag
	second, err := s.Save(ctx, update)
	if err != nil {
		t.Fatalf("update with current tag: %v", err)
	}
	if second.ChangeTag == first.ChangeTag {
		t.Errorf("change tag did not rotate on update")
	}

	// The old tag is now stale.
	stale := testRecord("r1")
	stale.ChangeTag = first.ChangeTag
	if _, err := s.Save(ctx, stale); !errors.Is(err, ErrConflict) {
		t.Errorf("update with stale tag = %v, want ErrConflict", err)
	}
}

func TestMemorySaveUpdateMissingRecord(t *testing.T) {
	s := NewMemory()

	rec := testRecord("ghost")
	rec.ChangeTag = "tag-1"
	if _, err := s.Save(context.Background(), rec); !errors.Is(err, ErrConflict) {
		t.Errorf("update of missing record = %v, want ErrConflict", err)
	}
}

func TestMemoryFetch(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	saved, err := s.Save(ctx, testRecord("r1"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Fetch(ctx, ZoneFeeds, RecordTypeFeed, "r1")
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	if got.ChangeTag != saved.ChangeTag {
		t.Errorf("fetched tag = %q, want %q", got.ChangeTag, saved.ChangeTag)
	}

	if _, err := s.Fetch(ctx, ZoneFeeds, RecordTypeFeed, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.Save(ctx, testRecord("r1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := s.Delete(ctx, ZoneFeeds, RecordTypeFeed, "r1"); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if err := s.Delete(ctx, ZoneFeeds, RecordTypeFeed, "r1"); err != nil {
		t.Errorf("second Delete() = %v, want nil", err)
	}
	if _, err := s.Fetch(ctx, ZoneFeeds, RecordTypeFeed, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryQueryFiltersByZoneAndType(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	records := []Record{
		{Zone: ZoneFeeds, Type: RecordTypeFeed, Name: "f1"},
		{Zone: ZoneFeeds, Type: RecordTypeFeed, Name: "f2"},
		{Zone: ZoneFeeds, Type: RecordTypeArticle, Name: "a1"},
		{Zone: ZoneArticles, Type: RecordTypeFeed, Name: "f3"},
	}
	for _, rec := range records {
		if _, err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.Name, err)
		}
	}

	got, err := s.Query(ctx, ZoneFeeds, RecordTypeFeed)
	if err != nil {
		t.Fatalf("Query() = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(results) = %d, want 2", len(got))
	}
	for _, rec := range got {
		if rec.Zone != ZoneFeeds || rec.Type != RecordTypeFeed {
			t.Errorf("stray record in results: %s/%s/%s", rec.Zone, rec.Type, rec.Name)
		}
	}
}

func TestMemoryNotifications(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	events := s.Notifications()

	if _, err := s.Save(ctx, testRecord("r1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, ZoneFeeds, RecordTypeFeed, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	saveEvt := <-events
	if saveEvt.Reason != "save" || saveEvt.Name != "r1" {
		t.Errorf("first event = %+v, want save of r1", saveEvt)
	}
	delEvt := <-events
	if delEvt.Reason != "delete" || delEvt.Name != "r1" {
		t.Errorf("second event = %+v, want delete of r1", delEvt)
	}
}

func TestZoneConfiguratorProvision(t *testing.T) {
	s := NewMemory()
	c := NewZoneConfigurator(s, testutil.NullLogger())

	if err := c.Provision(context.Background()); err != nil {
		t.Fatalf("Provision() = %v", err)
	}

	for _, zone := range AllZones() {
		if !s.HasZone(zone) {
			t.Errorf("zone %q not provisioned", zone)
		}
		sub, ok := s.Subscription(zone)
		if !ok {
			t.Errorf("zone %q has no subscription", zone)
			continue
		}
		if !sub.Silent {
			t.Errorf("zone %q subscription not silent", zone)
		}
	}
}

func TestZoneConfiguratorIdempotent(t *testing.T) {
	s := NewMemory()
	c := NewZoneConfigurator(s, testutil.NullLogger())

	for i := 0; i < 2; i++ {
		if err := c.Provision(context.Background()); err != nil {
			t.Fatalf("Provision() pass %d = %v", i+1, err)
		}
	}
	if len(AllZones()) != 3 {
		t.Fatalf("AllZones() = %d zones, want 3", len(AllZones()))
	}
}

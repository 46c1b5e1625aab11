package remote

import (
	"context"
	"fmt"

	"github.com/tmcnulty/quill/internal/logging"
)

// AllZones lists every partition the private database needs.
func AllZones() []string {
	return []string{ZoneFeeds, ZoneArticles, ZonePreferences}
}

// ZoneConfigurator provisions the named zones and their change-notification
// subscriptions in the remote store. Provisioning is idempotent and must
// complete before the sync engine is pointed at the store.
type ZoneConfigurator struct {
	store  RecordStore
	logger *logging.Logger
}

func NewZoneConfigurator(store RecordStore, logger *logging.Logger) *ZoneConfigurator {
	return &ZoneConfigurator{store: store, logger: logger}
}

// Provision creates all three zones, then one silent change subscription
// per zone. Subscriptions are only set up once every zone exists.
func (c *ZoneConfigurator) Provision(ctx context.Context) error {
	for _, zone := range AllZones() {
		if err := c.store.EnsureZone(ctx, zone); err != nil {
			return fmt.Errorf("ensure zone %s: %w", zone, err)
		}
	}

	for _, zone := range AllZones() {
		sub := SubscriptionConfig{Silent: true}
		if err := c.store.EnsureSubscription(ctx, zone, sub); err != nil {
			return fmt.Errorf("ensure subscription %s: %w", zone, err)
		}
	}

	c.logger.Info("remote zones provisioned", logging.WithField("zones", len(AllZones())))
	return nil
}

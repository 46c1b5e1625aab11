package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed record store. Records live as JSON values
// under "<prefix><zone>:<type>:<name>" keys; each zone keeps a key set for
// queries; change notifications go out on the zone's pub/sub channel.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisConfig holds configuration for the Redis record store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "quill:"
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(zone, recordType, name string) string {
	return s.prefix + recordKey(zone, recordType, name)
}

func (s *RedisStore) zoneSet(zone string) string {
	return s.prefix + "zone:" + zone + ":keys"
}

func (s *RedisStore) channel(zone string) string {
	return s.prefix + "changes:" + zone
}

// Save writes the record under an optimistic WATCH transaction: the stored
// change tag is compared against the caller's, and a mismatch aborts with
// ErrConflict.
func (s *RedisStore) Save(ctx context.Context, rec Record) (Record, error) {
	key := s.key(rec.Zone, rec.Type, rec.Name)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			if rec.ChangeTag != "" {
				return ErrConflict
			}
		case err != nil:
			return fmt.Errorf("read record: %w", err)
		default:
			var existing Record
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			if existing.ChangeTag != rec.ChangeTag {
				return ErrConflict
			}
		}

		rec.ChangeTag = uuid.NewString()
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, s.zoneSet(rec.Zone), key)
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return Record{}, ErrConflict
		}
		return Record{}, err
	}

	s.notify(ctx, Notification{Zone: rec.Zone, Type: rec.Type, Name: rec.Name, Reason: "save"})
	return rec, nil
}

func (s *RedisStore) Fetch(ctx context.Context, zone, recordType, name string) (Record, error) {
	data, err := s.client.Get(ctx, s.key(zone, recordType, name)).Bytes()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, zone, recordType, name string) error {
	key := s.key(zone, recordType, name)

	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.client.SRem(ctx, s.zoneSet(zone), key)

	if removed > 0 {
		s.notify(ctx, Notification{Zone: zone, Type: recordType, Name: name, Reason: "delete"})
	}
	return nil
}

func (s *RedisStore) Query(ctx context.Context, zone, recordType string) ([]Record, error) {
	keys, err := s.client.SMembers(ctx, s.zoneSet(zone)).Result()
	if err != nil {
		return nil, fmt.Errorf("list zone keys: %w", err)
	}
	if len(keys) == 0 {
		return []Record{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read zone records: %w", err)
	}

	out := make([]Record, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		if rec.Type == recordType {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *RedisStore) EnsureZone(ctx context.Context, zone string) error {
	if err := s.client.SAdd(ctx, s.prefix+"zones", zone).Err(); err != nil {
		return fmt.Errorf("provision zone %s: %w", zone, err)
	}
	return nil
}

func (s *RedisStore) EnsureSubscription(ctx context.Context, zone string, sub SubscriptionConfig) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := s.client.HSet(ctx, s.prefix+"subscriptions", zone, payload).Err(); err != nil {
		return fmt.Errorf("provision subscription %s: %w", zone, err)
	}
	return nil
}

func (s *RedisStore) notify(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	s.client.Publish(ctx, s.channel(n.Zone), payload)
}

// Listen subscribes to the change channels of the given zones and delivers
// decoded notifications until ctx is cancelled.
func (s *RedisStore) Listen(ctx context.Context, zones ...string) (<-chan Notification, error) {
	channels := make([]string, len(zones))
	for i, z := range zones {
		channels[i] = s.channel(z)
	}

	sub := s.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Notification, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var n Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements RecordStore.
var _ RecordStore = (*RedisStore)(nil)

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/skylog/internal/store"
)

// DefaultArchiveTTL bounds how long archived (undecodable) snapshots are kept
const DefaultArchiveTTL = 30 * 24 * time.Hour

// Slot keeps the snapshot in a single Redis string key. SET replaces the
// value atomically, so readers never see a partial snapshot.
type Slot struct {
	client *redis.Client
	name   string
	now    func() time.Time
}

var (
	_ store.Slot     = (*Slot)(nil)
	_ store.Archiver = (*Slot)(nil)
)

// NewSlot creates a slot bound to an already connected client
func NewSlot(client *redis.Client, name string) *Slot {
	return &Slot{client: client, name: name, now: time.Now}
}

// Read fetches the snapshot
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, SlotKey(s.name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to get slot %s: %w", s.name, err)
	}
	return data, nil
}

// Write overwrites the snapshot, with no expiry
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, SlotKey(s.name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", s.name, err)
	}
	return nil
}

// Archive copies data to a timestamped key that expires after DefaultArchiveTTL
func (s *Slot) Archive(ctx context.Context, data []byte) error {
	key := ArchiveKey(s.name, s.now())
	if err := s.client.Set(ctx, key, data, DefaultArchiveTTL).Err(); err != nil {
		return fmt.Errorf("failed to archive slot %s: %w", s.name, err)
	}
	return nil
}

// ArchivedKeys lists the archived snapshots of this slot
func (s *Slot) ArchivedKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, ArchivePattern(s.name), 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan archived snapshots: %w", err)
	}
	return keys, nil
}

func (s *Slot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Slot) Name() string {
	return "redis:" + SlotKey(s.name)
}

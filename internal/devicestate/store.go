// Package devicestate holds the per-device, per-user state that lives
// outside the primary store: chat read watermarks and dismissed
// announcement ids. Nothing here syncs across devices; the last device
// to write wins, and a user switching devices may see a previously
// dismissed announcement resurface.
package devicestate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps device-scoped state in Redis
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Store on the given Redis connection. Keys expire
// after ttl since trips themselves expire within days.
func NewStore(addr, password string, db int, ttl time.Duration) *Store {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &Store{client: client, ttl: ttl}
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func watermarkKey(tripID, userID, deviceID string) string {
	return fmt.Sprintf("watermark:%s:%s:%s", tripID, userID, deviceID)
}

func dismissedKey(userID, deviceID string) string {
	return fmt.Sprintf("dismissed:%s:%s", userID, deviceID)
}

// GetWatermark returns the read watermark for (trip, user, device), or
// the zero time when none has been recorded.
func (s *Store) GetWatermark(ctx context.Context, tripID, userID, deviceID string) (time.Time, error) {
	val, err := s.client.Get(ctx, watermarkKey(tripID, userID, deviceID)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get watermark: %w", err)
	}
	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt watermark value %q: %w", val, err)
	}
	return time.UnixMilli(millis), nil
}

// SetWatermark records the read watermark as epoch millis
func (s *Store) SetWatermark(ctx context.Context, tripID, userID, deviceID string, watermark time.Time) error {
	err := s.client.Set(ctx, watermarkKey(tripID, userID, deviceID),
		strconv.FormatInt(watermark.UnixMilli(), 10), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set watermark: %w", err)
	}
	return nil
}

// DismissAnnouncement records that this device has seen the announcement
func (s *Store) DismissAnnouncement(ctx context.Context, userID, deviceID, announcementID string) error {
	key := dismissedKey(userID, deviceID)
	if err := s.client.SAdd(ctx, key, announcementID).Err(); err != nil {
		return fmt.Errorf("failed to dismiss announcement: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh dismissal expiry: %w", err)
	}
	return nil
}

// DismissedAnnouncements returns the set of announcement ids this device
// has dismissed
func (s *Store) DismissedAnnouncements(ctx context.Context, userID, deviceID string) (map[string]bool, error) {
	ids, err := s.client.SMembers(ctx, dismissedKey(userID, deviceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load dismissed announcements: %w", err)
	}
	dismissed := make(map[string]bool, len(ids))
	for _, id := range ids {
		dismissed[id] = true
	}
	return dismissed, nil
}

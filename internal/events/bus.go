package events

import (
	"sync"
	"time"

	"github.com/commutelink/rideshare-backend/internal/models"
)

// EventType identifies what happened
type EventType string

const (
	// TripUpserted fires after any committed trip mutation
	TripUpserted EventType = "trip_upserted"
	// TripDeleted fires after a trip cancellation
	TripDeleted EventType = "trip_deleted"
	// WatermarkAdvanced fires when a user's read watermark moves, so
	// other in-memory views of the same trip clear their unread badge
	// without waiting for a data refresh
	WatermarkAdvanced EventType = "watermark_advanced"
	// NotificationCreated fires when a notification lands in an inbox
	NotificationCreated EventType = "notification_created"
	// ChatMessageSent fires when a chat message is appended
	ChatMessageSent EventType = "chat_message_sent"
	// FeedHeartbeat fires on the feed clock tick so views drop expired
	// trips even when no data has changed
	FeedHeartbeat EventType = "feed_heartbeat"
)

// Event is one bus message. TripID scopes trip-related events; UserID is
// set when the event concerns a single recipient (notifications,
// watermarks) and empty for broadcast events.
type Event struct {
	Type         EventType               `json:"type"`
	TripID       string                  `json:"trip_id,omitempty"`
	UserID       string                  `json:"user_id,omitempty"`
	Trip         *models.Trip            `json:"trip,omitempty"`
	Message      *models.ChatMessage     `json:"message,omitempty"`
	Notification *models.AppNotification `json:"notification,omitempty"`
	Watermark    time.Time               `json:"watermark,omitempty"`
}

// Bus is a process-wide publish/subscribe channel for state-change
// events. It replaces cross-component signaling that would otherwise
// need a data round-trip: subscribers see an event as soon as the
// triggering operation commits.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given channel buffer and
// returns the receive channel plus an unsubscribe function. The channel
// is closed on unsubscribe.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber. A subscriber whose
// buffer is full misses the event rather than blocking the publisher;
// feed consumers recompute from the store on the next heartbeat anyway.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

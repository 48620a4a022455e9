package models

import (
	"errors"
	"time"
)

// ChatMessageType represents the kind of chat message
type ChatMessageType string

const (
	ChatMessageTypeText     ChatMessageType = "text"
	ChatMessageTypeImage    ChatMessageType = "image"
	ChatMessageTypeLocation ChatMessageType = "location"
)

// ChatMessage is a single message in a trip's chat thread. Messages are
// append-only and ordered by CreatedAt, which is assigned by the server.
type ChatMessage struct {
	ID         string          `json:"id" db:"id"`
	TripID     string          `json:"trip_id" db:"trip_id"`
	SenderID   string          `json:"sender_id" db:"sender_id"`
	SenderName string          `json:"sender_name" db:"sender_name"`
	Type       ChatMessageType `json:"type" db:"type"`
	Content    string          `json:"content" db:"content"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// SendMessageRequest represents the request to post a chat message
type SendMessageRequest struct {
	Type    ChatMessageType `json:"type"`
	Content string          `json:"content" binding:"required"`
}

// Validate validates the send message request
func (r *SendMessageRequest) Validate() error {
	if r.Type == "" {
		r.Type = ChatMessageTypeText
	}
	switch r.Type {
	case ChatMessageTypeText, ChatMessageTypeImage, ChatMessageTypeLocation:
	default:
		return errors.New("type must be 'text', 'image' or 'location'")
	}
	if len(r.Content) > 4000 {
		return errors.New("content exceeds 4000 characters")
	}
	return nil
}

// UnreadCount counts messages from other senders newer than the viewer's
// watermark. The viewer's own messages never count as unread.
func UnreadCount(messages []ChatMessage, viewerID string, watermark time.Time) int {
	count := 0
	for i := range messages {
		if messages[i].SenderID == viewerID {
			continue
		}
		if messages[i].CreatedAt.After(watermark) {
			count++
		}
	}
	return count
}

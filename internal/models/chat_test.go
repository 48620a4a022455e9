package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnreadCount(t *testing.T) {
	watermark := time.Date(2025, 11, 17, 8, 0, 0, 0, time.UTC)
	messages := []ChatMessage{
		{SenderID: "driver-1", CreatedAt: watermark.Add(-time.Hour)},
		{SenderID: "driver-1", CreatedAt: watermark.Add(time.Minute)},
		{SenderID: "passenger-1", CreatedAt: watermark.Add(2 * time.Minute)},
		{SenderID: "passenger-1", CreatedAt: watermark.Add(3 * time.Minute)},
	}

	t.Run("Counts Others After Watermark", func(t *testing.T) {
		assert.Equal(t, 1, UnreadCount(messages, "passenger-1", watermark))
	})

	t.Run("Own Messages Never Count", func(t *testing.T) {
		assert.Equal(t, 2, UnreadCount(messages, "driver-1", watermark))
	})

	t.Run("Exactly At Watermark Is Read", func(t *testing.T) {
		atMark := []ChatMessage{{SenderID: "driver-1", CreatedAt: watermark}}
		assert.Equal(t, 0, UnreadCount(atMark, "passenger-1", watermark))
	})

	t.Run("Zero Watermark Counts Everything From Others", func(t *testing.T) {
		assert.Equal(t, 3, UnreadCount(messages, "passenger-1", time.Time{}))
	})

	t.Run("Empty Thread", func(t *testing.T) {
		assert.Equal(t, 0, UnreadCount(nil, "passenger-1", watermark))
	})
}

func TestSendMessageRequestValidate(t *testing.T) {
	t.Run("Defaults To Text", func(t *testing.T) {
		req := SendMessageRequest{Content: "pickup at the junction"}
		assert.NoError(t, req.Validate())
		assert.Equal(t, ChatMessageTypeText, req.Type)
	})

	t.Run("Rejects Unknown Type", func(t *testing.T) {
		req := SendMessageRequest{Type: "video", Content: "x"}
		assert.Error(t, req.Validate())
	})

	t.Run("Rejects Oversized Content", func(t *testing.T) {
		content := make([]byte, 4001)
		for i := range content {
			content[i] = 'a'
		}
		req := SendMessageRequest{Content: string(content)}
		assert.Error(t, req.Validate())
	})
}

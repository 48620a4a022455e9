package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/google/uuid"
)

// ChatRepository handles database operations for the chat_messages
// table. The thread is append-only; created_at is assigned by the
// database so ordering is consistent across writers.
type ChatRepository struct {
	db DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create appends a message to a trip's thread
func (r *ChatRepository) Create(msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	query := `
		INSERT INTO chat_messages (id, trip_id, sender_id, sender_name, type, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRow(query, msg.ID, msg.TripID, msg.SenderID, msg.SenderName, msg.Type, msg.Content).
		Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// ListByTrip retrieves a trip's thread in chronological order
func (r *ChatRepository) ListByTrip(tripID string, limit int) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	query := `
		SELECT id, trip_id, sender_id, sender_name, type, content, created_at
		FROM chat_messages
		WHERE trip_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	if err := r.db.Select(&messages, query, tripID, limit); err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

// CountOthersSince counts messages from other senders created after the
// watermark. This backs the unread badge on trip cards without loading
// the thread.
func (r *ChatRepository) CountOthersSince(tripID, viewerID string, watermark time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM chat_messages
		WHERE trip_id = $1 AND sender_id != $2 AND created_at > $3
	`
	if err := r.db.QueryRow(query, tripID, viewerID, watermark).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// LastMessageTime returns the timestamp of the newest message in the
// thread, or the zero time for an empty thread
func (r *ChatRepository) LastMessageTime(tripID string) (time.Time, error) {
	var last sql.NullTime
	query := `SELECT MAX(created_at) FROM chat_messages WHERE trip_id = $1`
	if err := r.db.QueryRow(query, tripID).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("failed to get last message time: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

// DeleteByTrip removes a cancelled trip's thread
func (r *ChatRepository) DeleteByTrip(tripID string) error {
	if _, err := r.db.Exec(`DELETE FROM chat_messages WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	return nil
}

// DeleteOrphaned removes threads whose trip no longer exists. Cancel
// deletes the thread best-effort after the trip row, so a crash in
// between leaves strays behind.
func (r *ChatRepository) DeleteOrphaned() (int64, error) {
	query := `
		DELETE FROM chat_messages
		WHERE trip_id NOT IN (SELECT id FROM trips)
	`
	result, err := r.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge orphaned chat messages: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows, nil
}

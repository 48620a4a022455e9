package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/google/uuid"
)

const notificationColumns = `id, user_id, type, title, message, payload, related_trip_id, is_read, created_at`

// NotificationRepository handles database operations for the
// notifications table. Notifications written as part of a trip mutation
// are inserted by TripRepository inside that transaction; this
// repository covers standalone writes (invitations) and the inbox.
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a standalone notification
func (r *NotificationRepository) Create(n *models.AppNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, payload, related_trip_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRow(query, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Payload, n.RelatedTripID, n.IsRead).
		Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByID retrieves one notification owned by the given user
func (r *NotificationRepository) GetByID(notificationID, userID string) (*models.AppNotification, error) {
	var n models.AppNotification
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1 AND user_id = $2`
	err := r.db.Get(&n, query, notificationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

// ListByUser retrieves the user's inbox, newest first
func (r *NotificationRepository) ListByUser(userID string, limit int) ([]models.AppNotification, error) {
	notifications := []models.AppNotification{}
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.Select(&notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for the badge
func (r *NotificationRepository) UnreadCount(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`
	if err := r.db.QueryRow(query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read
func (r *NotificationRepository) MarkRead(notificationID, userID string) error {
	result, err := r.db.Exec(
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks the user's whole inbox read
func (r *NotificationRepository) MarkAllRead(userID string) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read = true WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

// Delete removes one notification
func (r *NotificationRepository) Delete(notificationID, userID string) error {
	result, err := r.db.Exec(
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteAll clears the user's inbox
func (r *NotificationRepository) DeleteAll(userID string) error {
	_, err := r.db.Exec(`DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

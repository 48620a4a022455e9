package services

import (
	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// NotificationService exposes the user-facing notification inbox.
// Creation mostly happens inside trip mutations; this service only reads
// and mutates read/delete state.
type NotificationService struct {
	notifRepo *database.NotificationRepository
	logger    *logrus.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifRepo *database.NotificationRepository, logger *logrus.Logger) *NotificationService {
	return &NotificationService{notifRepo: notifRepo, logger: logger}
}

// List returns the user's inbox, newest first
func (s *NotificationService) List(userID string, limit int) ([]models.AppNotification, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.notifRepo.ListByUser(userID, limit)
}

// UnreadCount returns the badge count for the user's inbox
func (s *NotificationService) UnreadCount(userID string) (int, error) {
	return s.notifRepo.UnreadCount(userID)
}

// MarkRead marks a single notification read
func (s *NotificationService) MarkRead(notificationID, userID string) error {
	return s.notifRepo.MarkRead(notificationID, userID)
}

// MarkAllRead marks the whole inbox read
func (s *NotificationService) MarkAllRead(userID string) error {
	return s.notifRepo.MarkAllRead(userID)
}

// Delete removes a single notification
func (s *NotificationService) Delete(notificationID, userID string) error {
	return s.notifRepo.Delete(notificationID, userID)
}

// DeleteAll clears the user's inbox
func (s *NotificationService) DeleteAll(userID string) error {
	return s.notifRepo.DeleteAll(userID)
}

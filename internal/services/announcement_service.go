package services

import (
	"context"

	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DismissalStore is the slice of the device state store the
// announcement service needs
type DismissalStore interface {
	DismissAnnouncement(ctx context.Context, userID, deviceID, announcementID string) error
	DismissedAnnouncements(ctx context.Context, userID, deviceID string) (map[string]bool, error)
}

// AnnouncementService manages admin broadcasts and their per-device
// dismissal state
type AnnouncementService struct {
	annRepo   *database.AnnouncementRepository
	state     DismissalStore
	tokenHash string
	logger    *logrus.Logger
}

// NewAnnouncementService creates a new AnnouncementService. tokenHash is
// the bcrypt hash of the shared broadcast token; empty disables the
// admin endpoints.
func NewAnnouncementService(
	annRepo *database.AnnouncementRepository,
	state DismissalStore,
	tokenHash string,
	logger *logrus.Logger,
) *AnnouncementService {
	return &AnnouncementService{
		annRepo:   annRepo,
		state:     state,
		tokenHash: tokenHash,
		logger:    logger,
	}
}

// CheckAdminToken verifies the shared broadcast token against the
// configured bcrypt hash
func (s *AnnouncementService) CheckAdminToken(token string) error {
	if s.tokenHash == "" {
		return ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.tokenHash), []byte(token)); err != nil {
		return ErrAdminToken
	}
	return nil
}

// Create publishes a new broadcast to all users
func (s *AnnouncementService) Create(adminToken string, req *models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.CheckAdminToken(adminToken); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ann := &models.Announcement{
		Title:    req.Title,
		Message:  req.Message,
		IsActive: true,
	}
	if err := s.annRepo.Create(ann); err != nil {
		return nil, err
	}

	s.logger.WithField("announcement_id", ann.ID).Info("Announcement published")
	return ann, nil
}

// Deactivate retires a broadcast so it stops appearing for everyone
func (s *AnnouncementService) Deactivate(adminToken, announcementID string) error {
	if err := s.CheckAdminToken(adminToken); err != nil {
		return err
	}
	return s.annRepo.Deactivate(announcementID)
}

// ListForUser returns the active broadcasts this device has not yet
// dismissed. A dismissal lookup failure degrades to showing everything
// rather than failing the request.
func (s *AnnouncementService) ListForUser(ctx context.Context, userID, deviceID string) ([]models.Announcement, error) {
	announcements, err := s.annRepo.ListActive()
	if err != nil {
		return nil, err
	}

	dismissed, err := s.state.DismissedAnnouncements(ctx, userID, deviceID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to load dismissed announcements")
		return announcements, nil
	}

	visible := announcements[:0]
	for _, ann := range announcements {
		if !dismissed[ann.ID] {
			visible = append(visible, ann)
		}
	}
	return visible, nil
}

// Dismiss hides an announcement on this device
func (s *AnnouncementService) Dismiss(ctx context.Context, userID, deviceID, announcementID string) error {
	if _, err := s.annRepo.GetByID(announcementID); err != nil {
		return err
	}
	return s.state.DismissAnnouncement(ctx, userID, deviceID, announcementID)
}

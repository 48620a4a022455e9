package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/google/uuid"
)

// AnnouncementRepository handles database operations for the
// announcements table (admin broadcasts)
type AnnouncementRepository struct {
	db DB
}

// NewAnnouncementRepository creates a new AnnouncementRepository
func NewAnnouncementRepository(db DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts a new announcement
func (r *AnnouncementRepository) Create(a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO announcements (id, title, message, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRow(query, a.ID, a.Title, a.Message, a.IsActive).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

// GetByID retrieves an announcement by ID
func (r *AnnouncementRepository) GetByID(announcementID string) (*models.Announcement, error) {
	var a models.Announcement
	query := `SELECT id, title, message, is_active, created_at FROM announcements WHERE id = $1`
	err := r.db.Get(&a, query, announcementID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}
	return &a, nil
}

// ListActive retrieves all active announcements, newest first
func (r *AnnouncementRepository) ListActive() ([]models.Announcement, error) {
	announcements := []models.Announcement{}
	query := `
		SELECT id, title, message, is_active, created_at
		FROM announcements
		WHERE is_active = true
		ORDER BY created_at DESC
	`
	if err := r.db.Select(&announcements, query); err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return announcements, nil
}

// Deactivate retires an announcement
func (r *AnnouncementRepository) Deactivate(announcementID string) error {
	result, err := r.db.Exec(`UPDATE announcements SET is_active = false WHERE id = $1`, announcementID)
	if err != nil {
		return fmt.Errorf("failed to deactivate announcement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

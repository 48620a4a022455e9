package models

import (
	"errors"
	"time"
)

// Announcement is an admin broadcast shown to all non-admin users.
// Dismissal is tracked per (announcement, user) outside the primary
// store, so a user switching devices may see one resurface.
type Announcement struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateAnnouncementRequest represents the admin broadcast request
type CreateAnnouncementRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Validate validates the create announcement request
func (r *CreateAnnouncementRequest) Validate() error {
	if len(r.Title) > 120 {
		return errors.New("title exceeds 120 characters")
	}
	if len(r.Message) > 2000 {
		return errors.New("message exceeds 2000 characters")
	}
	return nil
}

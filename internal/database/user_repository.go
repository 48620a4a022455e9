package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/commutelink/rideshare-backend/internal/models"
)

// UserRepository handles user snapshot database operations. The auth
// provider owns the account lifecycle; this table mirrors the profile
// fields that get denormalized onto passenger entries.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user snapshot by ID
func (r *UserRepository) GetByID(userID string) (*models.User, error) {
	var user models.User
	query := `SELECT id, name, phone, photo, is_admin, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.Get(&user, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Upsert refreshes a user snapshot from the auth provider's profile
func (r *UserRepository) Upsert(user *models.User) error {
	query := `
		INSERT INTO users (id, name, phone, photo, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    phone = EXCLUDED.phone,
		    photo = EXCLUDED.photo,
		    updated_at = now()
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(query, user.ID, user.Name, user.Phone, user.Photo, user.IsAdmin).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// Snapshot builds a passenger entry from the user's current profile
func (r *UserRepository) Snapshot(userID string) (*models.Passenger, error) {
	user, err := r.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return &models.Passenger{
		UID:         user.ID,
		Name:        user.Name,
		Photo:       user.Photo,
		PhoneNumber: user.Phone,
	}, nil
}

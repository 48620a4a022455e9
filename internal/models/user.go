package models

import "time"

// User is the profile snapshot source for passenger denormalization.
// Account lifecycle (sign-in, verification) belongs to the external
// auth provider; this table only mirrors what trip cards display.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Photo     string    `json:"photo,omitempty" db:"photo"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

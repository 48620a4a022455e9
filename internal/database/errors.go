package database

import "errors"

// Sentinel errors surfaced by repositories. Handlers map these to HTTP
// status codes; everything else funnels to a generic 500.
var (
	// ErrTripNotFound means the target trip vanished before or during the
	// operation, usually a race with a concurrent cancellation.
	ErrTripNotFound = errors.New("trip not found")

	// ErrPassengerNotFound means the target passenger entry is not on the
	// trip's passenger list.
	ErrPassengerNotFound = errors.New("passenger not found on trip")

	// ErrConstraintViolation means the operation would break a seat or
	// membership invariant (duplicate join, approve with no seats left).
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotificationNotFound means the target notification does not exist
	// or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrAnnouncementNotFound means the target announcement does not exist.
	ErrAnnouncementNotFound = errors.New("announcement not found")

	// ErrUserNotFound means the user snapshot row does not exist.
	ErrUserNotFound = errors.New("user not found")
)

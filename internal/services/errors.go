package services

import "errors"

// Service-level sentinel errors. Repository sentinels (not found,
// constraint violation) pass through from the database package.
var (
	// ErrNotTripOwner means the caller tried an owner-only operation on
	// someone else's trip.
	ErrNotTripOwner = errors.New("caller does not own this trip")

	// ErrTripNotJoinable means the join-eligibility gate failed: the trip
	// is closed, expired, or (for offers) out of seats.
	ErrTripNotJoinable = errors.New("trip is not joinable")

	// ErrOwnTrip means the owner tried to join their own trip.
	ErrOwnTrip = errors.New("cannot join own trip")

	// ErrInvitationMismatch means the referenced notification is not an
	// invitation for this trip and user.
	ErrInvitationMismatch = errors.New("notification is not an invitation for this trip")

	// ErrNotTripMember means the caller is neither the trip owner nor on
	// its passenger list.
	ErrNotTripMember = errors.New("caller is not on this trip")

	// ErrAdminDisabled means no admin token hash is configured.
	ErrAdminDisabled = errors.New("admin broadcasts are disabled")

	// ErrAdminToken means the supplied admin token did not match.
	ErrAdminToken = errors.New("invalid admin token")
)

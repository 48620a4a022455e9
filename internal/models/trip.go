package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TripGracePeriod is how long past the nominal departure a trip stays
// visible and joinable. Commuter pickups routinely run late, so a trip
// is only considered gone 30 minutes after its departure time.
const TripGracePeriod = 30 * time.Minute

// TripType distinguishes who posted the trip
type TripType string

const (
	TripTypeOffer   TripType = "offer"   // driver with seats to fill
	TripTypeRequest TripType = "request" // passenger looking for a seat
)

// Direction is one of the two fixed corridor directions
type Direction string

const (
	DirectionToCity Direction = "to_city" // morning commute, town -> city
	DirectionToTown Direction = "to_town" // evening commute, city -> town
)

// ValidDirection reports whether d is one of the two corridor directions
func ValidDirection(d Direction) bool {
	return d == DirectionToCity || d == DirectionToTown
}

// PassengerStatus represents a passenger's state on a trip
type PassengerStatus string

const (
	PassengerStatusPending  PassengerStatus = "pending"  // awaiting owner decision
	PassengerStatusApproved PassengerStatus = "approved" // counted against seats
)

// Passenger is one user's participation on a trip. The name, photo and
// phone number are snapshots taken at join time and are not re-synced.
type Passenger struct {
	UID                     string          `json:"uid"`
	Name                    string          `json:"name"`
	Photo                   string          `json:"photo,omitempty"`
	PhoneNumber             string          `json:"phone_number,omitempty"`
	Status                  PassengerStatus `json:"status"`
	RequestedPickupLocation string          `json:"requested_pickup_location,omitempty"`
	JoinedAt                time.Time       `json:"joined_at"`
}

// PassengerList is stored as a JSONB column on the trips table.
// Order is insertion order (request order).
type PassengerList []Passenger

// Value implements the driver.Valuer interface
func (p PassengerList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface
func (p *PassengerList) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into PassengerList", src)
	}
}

// Trip is a published ride opportunity on the corridor
type Trip struct {
	ID             string        `json:"id" db:"id"`
	Type           TripType      `json:"type" db:"type"`
	DriverID       string        `json:"driver_id" db:"driver_id"` // owner; for requests this is the requesting passenger
	DriverName     string        `json:"driver_name" db:"driver_name"`
	DriverPhoto    string        `json:"driver_photo,omitempty" db:"driver_photo"`
	DriverPhone    string        `json:"driver_phone,omitempty" db:"driver_phone"`
	Direction      Direction     `json:"direction" db:"direction"`
	DepartureTime  time.Time     `json:"departure_time" db:"departure_time"`
	AvailableSeats int           `json:"available_seats" db:"available_seats"` // remaining capacity (offer) or seats still wanted (request)
	PickupLocation string        `json:"pickup_location" db:"pickup_location"`
	Passengers     PassengerList `json:"passengers" db:"passengers"`
	IsClosed       bool          `json:"is_closed" db:"is_closed"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// FindPassenger returns the index of the passenger with the given uid,
// or -1 if no such entry exists
func (t *Trip) FindPassenger(uid string) int {
	for i := range t.Passengers {
		if t.Passengers[i].UID == uid {
			return i
		}
	}
	return -1
}

// ApprovedCount returns the number of approved passengers
func (t *Trip) ApprovedCount() int {
	count := 0
	for i := range t.Passengers {
		if t.Passengers[i].Status == PassengerStatusApproved {
			count++
		}
	}
	return count
}

// TotalSeats reconstructs the total seats ever offered. The stored
// available_seats field is always "remaining", never "total", so the
// edit form adds back the currently approved passengers.
func (t *Trip) TotalSeats() int {
	return t.AvailableSeats + t.ApprovedCount()
}

// IsExpired reports whether the trip has passed its grace window
func (t *Trip) IsExpired(now time.Time) bool {
	return t.DepartureTime.Add(TripGracePeriod).Before(now)
}

// IsJoinable reports whether the trip accepts further join requests.
// Offers gate on remaining seats; requests only gate on the closed flag
// since their seat count means "seats still wanted" and applications do
// not auto-decrement it.
func (t *Trip) IsJoinable(now time.Time) bool {
	if t.IsClosed || t.IsExpired(now) {
		return false
	}
	if t.Type == TripTypeOffer {
		return t.AvailableSeats > 0
	}
	return true
}

// CreateTripRequest represents the request to post a new trip
type CreateTripRequest struct {
	Type           TripType  `json:"type" binding:"required"`
	Direction      Direction `json:"direction" binding:"required"`
	DepartureTime  time.Time `json:"departure_time" binding:"required"`
	Seats          int       `json:"seats" binding:"required"`
	PickupLocation string    `json:"pickup_location" binding:"required"`
}

// Validate validates the create trip request
func (r *CreateTripRequest) Validate() error {
	if r.Type != TripTypeOffer && r.Type != TripTypeRequest {
		return errors.New("type must be 'offer' or 'request'")
	}
	if !ValidDirection(r.Direction) {
		return errors.New("direction must be 'to_city' or 'to_town'")
	}
	if r.Seats < 1 || r.Seats > 8 {
		return errors.New("seats must be between 1 and 8")
	}
	if r.DepartureTime.Add(TripGracePeriod).Before(time.Now()) {
		return errors.New("departure_time is in the past")
	}
	return nil
}

// UpdateTripRequest represents an owner edit of an existing trip.
// TotalSeats is the full capacity as shown in the edit form; the stored
// remaining count is recomputed against the approved passengers.
type UpdateTripRequest struct {
	DepartureTime  *time.Time `json:"departure_time,omitempty"`
	TotalSeats     *int       `json:"total_seats,omitempty"`
	PickupLocation *string    `json:"pickup_location,omitempty"`
}

// Validate validates the update trip request
func (r *UpdateTripRequest) Validate() error {
	if r.TotalSeats != nil && (*r.TotalSeats < 1 || *r.TotalSeats > 8) {
		return errors.New("total_seats must be between 1 and 8")
	}
	return nil
}

// JoinTripRequest represents a passenger's request to join a trip
type JoinTripRequest struct {
	PickupLocation string `json:"pickup_location,omitempty"`
}

// PassengerActionRequest targets one passenger entry on a trip
type PassengerActionRequest struct {
	PassengerID string `json:"passenger_id" binding:"required"`
}

// InvitePassengerRequest invites a user onto a trip
type InvitePassengerRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// InvitationActionRequest accepts or declines a trip invitation
type InvitationActionRequest struct {
	NotificationID string `json:"notification_id" binding:"required"`
	PickupLocation string `json:"pickup_location,omitempty"`
}

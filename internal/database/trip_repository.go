package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const tripColumns = `id, type, driver_id, driver_name, driver_photo, driver_phone,
	   direction, departure_time, available_seats, pickup_location,
	   passengers, is_closed, created_at, updated_at`

// TripRepository handles database operations for the trips table.
// Every passenger-list or seat mutation runs as a single transaction:
// lock the trip row, validate, write the new state, write the companion
// notification, commit. Two concurrent mutations on the same trip
// therefore serialize on the row lock and can never decrement seats
// from a stale read.
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create inserts a new trip
func (r *TripRepository) Create(trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.Passengers == nil {
		trip.Passengers = models.PassengerList{}
	}

	query := `
		INSERT INTO trips (
			id, type, driver_id, driver_name, driver_photo, driver_phone,
			direction, departure_time, available_seats, pickup_location,
			passengers, is_closed
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		trip.ID, trip.Type, trip.DriverID, trip.DriverName, trip.DriverPhoto, trip.DriverPhone,
		trip.Direction, trip.DepartureTime, trip.AvailableSeats, trip.PickupLocation,
		trip.Passengers, trip.IsClosed,
	).Scan(&trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(tripID string) (*models.Trip, error) {
	var trip models.Trip
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	err := r.db.Get(&trip, query, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// ListLive retrieves all trips that have not yet passed the expiry
// cutoff (departure + grace period), ordered by departure time. Finer
// filtering happens in memory in the feed service.
func (r *TripRepository) ListLive(cutoff time.Time) ([]models.Trip, error) {
	trips := []models.Trip{}
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE departure_time >= $1
		ORDER BY departure_time ASC
	`
	if err := r.db.Select(&trips, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list live trips: %w", err)
	}
	return trips, nil
}

// ListByOwner retrieves all trips posted by the given user
func (r *TripRepository) ListByOwner(driverID string) ([]models.Trip, error) {
	trips := []models.Trip{}
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = $1
		ORDER BY departure_time ASC
	`
	if err := r.db.Select(&trips, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to list trips by owner: %w", err)
	}
	return trips, nil
}

// ListJoined retrieves all trips where the given user appears on the
// passenger list, pending or approved
func (r *TripRepository) ListJoined(uid string) ([]models.Trip, error) {
	trips := []models.Trip{}
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE passengers @> $1::jsonb
		ORDER BY departure_time ASC
	`
	member := fmt.Sprintf(`[{"uid": %q}]`, uid)
	if err := r.db.Select(&trips, query, member); err != nil {
		return nil, fmt.Errorf("failed to list joined trips: %w", err)
	}
	return trips, nil
}

// OwnerApprovedElsewhere reports whether the given user is an approved
// passenger on any offer trip with the same direction departing on the
// same calendar day. Used to treat a seat request as closed once its
// owner already has a ride.
func (r *TripRepository) OwnerApprovedElsewhere(ownerID string, direction models.Direction, day time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM trips
			WHERE type = $1
			  AND direction = $2
			  AND departure_time::date = $3::date
			  AND passengers @> $4::jsonb
		)
	`
	member := fmt.Sprintf(`[{"uid": %q, "status": %q}]`, ownerID, models.PassengerStatusApproved)
	err := r.db.QueryRow(query, models.TripTypeOffer, direction, day.Format("2006-01-02"), member).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check approved membership: %w", err)
	}
	return exists, nil
}

// RequestToJoin appends the passenger with status pending and notifies
// the trip owner. Seats are untouched until the owner approves. A uid
// already on the passenger list is rejected inside the transaction.
func (r *TripRepository) RequestToJoin(tripID string, passenger models.Passenger) (*models.Trip, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.FindPassenger(passenger.UID) >= 0 {
		return nil, fmt.Errorf("user %s already on trip: %w", passenger.UID, ErrConstraintViolation)
	}

	passenger.Status = models.PassengerStatusPending
	if passenger.RequestedPickupLocation == "" {
		passenger.RequestedPickupLocation = trip.PickupLocation
	}
	passenger.JoinedAt = time.Now()
	trip.Passengers = append(trip.Passengers, passenger)

	if err := saveTrip(tx, trip); err != nil {
		return nil, err
	}

	notif := newTripNotification(trip.DriverID, models.NotificationTypeRequest, trip.ID, models.NotificationPayload{
		Template:    models.TemplateJoinRequest,
		JoinRequest: &models.JoinRequestArgs{PassengerName: passenger.Name},
	})
	if err := insertNotification(tx, notif); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, nil
}

// ApprovePassenger transitions a pending passenger to approved and
// decrements available seats by exactly one, notifying the passenger.
// A missing or already-approved entry is an idempotent no-op (applied
// is false); approving with no seats left is a constraint violation.
func (r *TripRepository) ApprovePassenger(tripID, passengerID string) (*models.Trip, bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, false, err
	}

	idx := trip.FindPassenger(passengerID)
	if idx < 0 || trip.Passengers[idx].Status != models.PassengerStatusPending {
		// Already handled by a concurrent approval or removal.
		return trip, false, nil
	}
	if trip.AvailableSeats <= 0 {
		return nil, false, fmt.Errorf("no seats remaining on trip %s: %w", tripID, ErrConstraintViolation)
	}

	trip.Passengers[idx].Status = models.PassengerStatusApproved
	trip.AvailableSeats--

	if err := saveTrip(tx, trip); err != nil {
		return nil, false, err
	}

	notif := newTripNotification(passengerID, models.NotificationTypeApproved, trip.ID, models.NotificationPayload{
		Template: models.TemplateRequestApproved,
	})
	if err := insertNotification(tx, notif); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, true, nil
}

// RejectPassenger removes the passenger entry entirely regardless of
// status. Seats never change: a pending entry was never counted and the
// reject path is only offered for pending requests. The passenger is
// notified. A missing entry is an idempotent no-op.
func (r *TripRepository) RejectPassenger(tripID, passengerID string) (*models.Trip, bool, error) {
	return r.removePassenger(tripID, passengerID, models.TemplateRequestRejected)
}

// RemovePassenger evicts a passenger (owner-initiated). If the removed
// entry was approved its seat is returned. The passenger is notified.
func (r *TripRepository) RemovePassenger(tripID, passengerID string) (*models.Trip, bool, error) {
	return r.removePassenger(tripID, passengerID, models.TemplatePassengerRemoved)
}

func (r *TripRepository) removePassenger(tripID, passengerID string, template models.NotificationTemplate) (*models.Trip, bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, false, err
	}

	idx := trip.FindPassenger(passengerID)
	if idx < 0 {
		return trip, false, nil
	}

	wasApproved := trip.Passengers[idx].Status == models.PassengerStatusApproved
	trip.Passengers = append(trip.Passengers[:idx], trip.Passengers[idx+1:]...)
	if wasApproved {
		trip.AvailableSeats++
	}

	if err := saveTrip(tx, trip); err != nil {
		return nil, false, err
	}

	notif := newTripNotification(passengerID, models.NotificationTypeInfo, trip.ID, models.NotificationPayload{
		Template: template,
	})
	if err := insertNotification(tx, notif); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, true, nil
}

// LeaveTrip removes the passenger at their own initiative. Seat logic
// matches RemovePassenger, but the notification goes to the trip owner
// and carries the leaving passenger's name.
func (r *TripRepository) LeaveTrip(tripID, uid string) (*models.Trip, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, err
	}

	idx := trip.FindPassenger(uid)
	if idx < 0 {
		return nil, fmt.Errorf("user %s: %w", uid, ErrPassengerNotFound)
	}

	leaving := trip.Passengers[idx]
	trip.Passengers = append(trip.Passengers[:idx], trip.Passengers[idx+1:]...)
	if leaving.Status == models.PassengerStatusApproved {
		trip.AvailableSeats++
	}

	if err := saveTrip(tx, trip); err != nil {
		return nil, err
	}

	notif := newTripNotification(trip.DriverID, models.NotificationTypeInfo, trip.ID, models.NotificationPayload{
		Template:      models.TemplatePassengerLeft,
		PassengerLeft: &models.PassengerLeftArgs{PassengerName: leaving.Name},
	})
	if err := insertNotification(tx, notif); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, nil
}

// AcceptInvitation appends the passenger directly as approved (bypassing
// pending), takes their seat, marks the originating invitation read and
// notifies the owner, all in one transaction.
func (r *TripRepository) AcceptInvitation(tripID string, passenger models.Passenger, notificationID string) (*models.Trip, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.FindPassenger(passenger.UID) >= 0 {
		return nil, fmt.Errorf("user %s already on trip: %w", passenger.UID, ErrConstraintViolation)
	}
	if trip.AvailableSeats <= 0 {
		return nil, fmt.Errorf("no seats remaining on trip %s: %w", tripID, ErrConstraintViolation)
	}

	passenger.Status = models.PassengerStatusApproved
	if passenger.RequestedPickupLocation == "" {
		passenger.RequestedPickupLocation = trip.PickupLocation
	}
	passenger.JoinedAt = time.Now()
	trip.Passengers = append(trip.Passengers, passenger)
	trip.AvailableSeats--

	if err := saveTrip(tx, trip); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE notifications SET is_read = true WHERE id = $1`, notificationID); err != nil {
		return nil, fmt.Errorf("failed to mark invitation read: %w", err)
	}

	notif := newTripNotification(trip.DriverID, models.NotificationTypeInfo, trip.ID, models.NotificationPayload{
		Template:       models.TemplateInviteAccepted,
		InviteAccepted: &models.InviteAcceptedArgs{PassengerName: passenger.Name},
	})
	if err := insertNotification(tx, notif); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, nil
}

// CancelTrip hard-deletes the trip and writes a cancellation
// notification to every passenger on it, any status, as one atomic
// batch. Returns the deleted trip.
func (r *TripRepository) CancelTrip(tripID string) (*models.Trip, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, err
	}

	for i := range trip.Passengers {
		notif := newTripNotification(trip.Passengers[i].UID, models.NotificationTypeCancel, trip.ID, models.NotificationPayload{
			Template: models.TemplateTripCancelled,
			TripCancelled: &models.TripCancelledArgs{
				Direction:     trip.Direction,
				DepartureTime: trip.DepartureTime,
			},
		})
		if err := insertNotification(tx, notif); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(`DELETE FROM trips WHERE id = $1`, tripID); err != nil {
		return nil, fmt.Errorf("failed to delete trip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, nil
}

// ToggleClosed flips the manual closed flag. No seat or passenger change.
func (r *TripRepository) ToggleClosed(tripID string) (*models.Trip, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, err
	}

	trip.IsClosed = !trip.IsClosed
	if err := saveTrip(tx, trip); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, nil
}

// UpdateTrip applies an owner edit. Seats arrive as the total shown in
// the edit form; the stored remaining count is total minus currently
// approved passengers, which must not go negative.
func (r *TripRepository) UpdateTrip(tripID string, req *models.UpdateTripRequest) (*models.Trip, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := lockTrip(tx, tripID)
	if err != nil {
		return nil, err
	}

	if req.DepartureTime != nil {
		trip.DepartureTime = *req.DepartureTime
	}
	if req.PickupLocation != nil {
		trip.PickupLocation = *req.PickupLocation
	}
	if req.TotalSeats != nil {
		remaining := *req.TotalSeats - trip.ApprovedCount()
		if remaining < 0 {
			return nil, fmt.Errorf("total seats below approved passenger count: %w", ErrConstraintViolation)
		}
		trip.AvailableSeats = remaining
	}

	if err := saveTrip(tx, trip); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return trip, nil
}

// DeleteExpiredBefore removes trips whose departure is older than the
// cutoff. Used by the nightly purge; recently expired trips stay around
// so "my trips" can still show them.
func (r *TripRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM trips WHERE departure_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired trips: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows, nil
}

// lockTrip reads the trip row under FOR UPDATE so concurrent mutations
// serialize on it
func lockTrip(tx *sqlx.Tx, tripID string) (*models.Trip, error) {
	var trip models.Trip
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	err := tx.Get(&trip, query, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock trip: %w", err)
	}
	return &trip, nil
}

// saveTrip writes back the mutable trip fields
func saveTrip(tx *sqlx.Tx, trip *models.Trip) error {
	query := `
		UPDATE trips
		SET departure_time = $1,
		    available_seats = $2,
		    pickup_location = $3,
		    passengers = $4,
		    is_closed = $5,
		    updated_at = now()
		WHERE id = $6
	`
	_, err := tx.Exec(query,
		trip.DepartureTime, trip.AvailableSeats, trip.PickupLocation,
		trip.Passengers, trip.IsClosed, trip.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// insertNotification writes a notification row inside the same
// transaction as the trip mutation it accompanies
func insertNotification(tx *sqlx.Tx, n *models.AppNotification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, payload, related_trip_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(query, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Payload, n.RelatedTripID, n.IsRead)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// newTripNotification builds a notification with the rendered default
// strings for a trip state transition
func newTripNotification(userID string, typ models.NotificationType, tripID string, payload models.NotificationPayload) *models.AppNotification {
	title, message := payload.Render()
	return &models.AppNotification{
		ID:            uuid.New().String(),
		UserID:        userID,
		Type:          typ,
		Title:         title,
		Message:       message,
		Payload:       payload,
		RelatedTripID: &tripID,
	}
}

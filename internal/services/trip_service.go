package services

import (
	"fmt"
	"time"

	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/events"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/commutelink/rideshare-backend/internal/observability"
	"github.com/commutelink/rideshare-backend/internal/stream"
	"github.com/sirupsen/logrus"
)

// TripService is the seat/passenger reconciliation engine. Each
// operation delegates the atomic read-modify-write (trip state plus the
// companion notification) to the trip repository, then fans the
// committed change out: event bus for live views, Kafka for downstream
// consumers.
type TripService struct {
	tripRepo  *database.TripRepository
	userRepo  *database.UserRepository
	notifRepo *database.NotificationRepository
	chatRepo  *database.ChatRepository
	bus       *events.Bus
	producer  *stream.Producer
	logger    *logrus.Logger
}

// NewTripService creates a new TripService
func NewTripService(
	tripRepo *database.TripRepository,
	userRepo *database.UserRepository,
	notifRepo *database.NotificationRepository,
	chatRepo *database.ChatRepository,
	bus *events.Bus,
	producer *stream.Producer,
	logger *logrus.Logger,
) *TripService {
	return &TripService{
		tripRepo:  tripRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		chatRepo:  chatRepo,
		bus:       bus,
		producer:  producer,
		logger:    logger,
	}
}

// CreateTrip posts a new offer or request on behalf of ownerID
func (s *TripService) CreateTrip(ownerID string, req *models.CreateTripRequest) (*models.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByID(ownerID)
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		Type:           req.Type,
		DriverID:       owner.ID,
		DriverName:     owner.Name,
		DriverPhoto:    owner.Photo,
		DriverPhone:    owner.Phone,
		Direction:      req.Direction,
		DepartureTime:  req.DepartureTime,
		AvailableSeats: req.Seats,
		PickupLocation: req.PickupLocation,
		Passengers:     models.PassengerList{},
	}
	if err := s.tripRepo.Create(trip); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":   trip.ID,
		"type":      trip.Type,
		"direction": trip.Direction,
	}).Info("Trip created")

	s.afterMutation("created", trip, ownerID)
	return trip, nil
}

// GetTrip retrieves one trip
func (s *TripService) GetTrip(tripID string) (*models.Trip, error) {
	return s.tripRepo.GetByID(tripID)
}

// ListMine returns trips the user owns or appears on
func (s *TripService) ListMine(userID string) (owned, joined []models.Trip, err error) {
	owned, err = s.tripRepo.ListByOwner(userID)
	if err != nil {
		return nil, nil, err
	}
	joined, err = s.tripRepo.ListJoined(userID)
	if err != nil {
		return nil, nil, err
	}
	return owned, joined, nil
}

// RequestToJoin asks to join a trip. The eligibility gate (closed flag,
// expiry, remaining seats for offers) runs here before the transaction;
// the duplicate-membership guard runs inside it.
func (s *TripService) RequestToJoin(tripID, userID string, req *models.JoinTripRequest) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID == userID {
		return nil, ErrOwnTrip
	}
	if !trip.IsJoinable(time.Now()) {
		return nil, ErrTripNotJoinable
	}

	passenger, err := s.userRepo.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	if req != nil {
		passenger.RequestedPickupLocation = req.PickupLocation
	}

	updated, err := s.timedMutation("join", func() (*models.Trip, error) {
		return s.tripRepo.RequestToJoin(tripID, *passenger)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"trip_id": tripID, "user_id": userID}).Info("Join requested")
	s.afterMutation("join_requested", updated, userID)
	s.notifyUser(updated.DriverID, tripID)
	return updated, nil
}

// ApproveJoinRequest approves a pending passenger. Approving an entry
// that is already gone or already approved is a silent no-op, so a
// doubled-up approval click changes nothing.
func (s *TripService) ApproveJoinRequest(tripID, callerID, passengerID string) (*models.Trip, error) {
	if err := s.requireOwner(tripID, callerID); err != nil {
		return nil, err
	}

	var applied bool
	updated, err := s.timedMutation("approve", func() (*models.Trip, error) {
		trip, ok, err := s.tripRepo.ApprovePassenger(tripID, passengerID)
		applied = ok
		return trip, err
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return updated, nil
	}

	s.logger.WithFields(logrus.Fields{"trip_id": tripID, "passenger_id": passengerID}).Info("Join request approved")
	s.afterMutation("approved", updated, callerID)
	s.notifyUser(passengerID, tripID)
	return updated, nil
}

// RejectJoinRequest removes a pending entry and notifies the passenger
func (s *TripService) RejectJoinRequest(tripID, callerID, passengerID string) (*models.Trip, error) {
	if err := s.requireOwner(tripID, callerID); err != nil {
		return nil, err
	}

	var applied bool
	updated, err := s.timedMutation("reject", func() (*models.Trip, error) {
		trip, ok, err := s.tripRepo.RejectPassenger(tripID, passengerID)
		applied = ok
		return trip, err
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return updated, nil
	}

	s.afterMutation("rejected", updated, callerID)
	s.notifyUser(passengerID, tripID)
	return updated, nil
}

// RemovePassenger evicts a passenger of any status, returning the seat
// if the entry was approved
func (s *TripService) RemovePassenger(tripID, callerID, passengerID string) (*models.Trip, error) {
	if err := s.requireOwner(tripID, callerID); err != nil {
		return nil, err
	}

	var applied bool
	updated, err := s.timedMutation("remove", func() (*models.Trip, error) {
		trip, ok, err := s.tripRepo.RemovePassenger(tripID, passengerID)
		applied = ok
		return trip, err
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return updated, nil
	}

	s.afterMutation("removed", updated, callerID)
	s.notifyUser(passengerID, tripID)
	return updated, nil
}

// LeaveTrip removes the caller from a trip they joined; the owner is
// notified instead of the passenger
func (s *TripService) LeaveTrip(tripID, userID string) (*models.Trip, error) {
	updated, err := s.timedMutation("leave", func() (*models.Trip, error) {
		return s.tripRepo.LeaveTrip(tripID, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"trip_id": tripID, "user_id": userID}).Info("Passenger left trip")
	s.afterMutation("left", updated, userID)
	s.notifyUser(updated.DriverID, tripID)
	return updated, nil
}

// InvitePassenger writes an invitation notification to the target user.
// The trip itself is untouched until the invitation is accepted.
func (s *TripService) InvitePassenger(tripID, callerID, targetUserID string) error {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return err
	}
	if trip.DriverID != callerID {
		return ErrNotTripOwner
	}
	if trip.FindPassenger(targetUserID) >= 0 {
		return fmt.Errorf("user %s already on trip: %w", targetUserID, database.ErrConstraintViolation)
	}
	if !trip.IsJoinable(time.Now()) {
		return ErrTripNotJoinable
	}
	if _, err := s.userRepo.GetByID(targetUserID); err != nil {
		return err
	}

	payload := models.NotificationPayload{
		Template: models.TemplateTripInvite,
		TripInvite: &models.TripInviteArgs{
			DriverName:    trip.DriverName,
			Direction:     trip.Direction,
			DepartureTime: trip.DepartureTime,
		},
	}
	title, message := payload.Render()
	notif := &models.AppNotification{
		UserID:        targetUserID,
		Type:          models.NotificationTypeInvite,
		Title:         title,
		Message:       message,
		Payload:       payload,
		RelatedTripID: &trip.ID,
	}
	if err := s.notifRepo.Create(notif); err != nil {
		return err
	}
	observability.NotificationsCreatedTotal.Inc()

	s.logger.WithFields(logrus.Fields{"trip_id": tripID, "user_id": targetUserID}).Info("Invitation sent")
	s.bus.Publish(events.Event{Type: events.NotificationCreated, TripID: tripID, UserID: targetUserID, Notification: notif})
	return nil
}

// AcceptTripInvitation joins the caller directly as approved and marks
// the originating invitation read, all inside one transaction
func (s *TripService) AcceptTripInvitation(tripID, userID string, req *models.InvitationActionRequest) (*models.Trip, error) {
	if err := s.checkInvitation(tripID, userID, req.NotificationID); err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsJoinable(time.Now()) {
		return nil, ErrTripNotJoinable
	}

	passenger, err := s.userRepo.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	passenger.RequestedPickupLocation = req.PickupLocation

	updated, err := s.timedMutation("invite_accept", func() (*models.Trip, error) {
		return s.tripRepo.AcceptInvitation(tripID, *passenger, req.NotificationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"trip_id": tripID, "user_id": userID}).Info("Invitation accepted")
	s.afterMutation("invite_accepted", updated, userID)
	s.notifyUser(updated.DriverID, tripID)
	return updated, nil
}

// RejectTripInvitation marks the invitation read. No trip mutation.
func (s *TripService) RejectTripInvitation(tripID, userID, notificationID string) error {
	if err := s.checkInvitation(tripID, userID, notificationID); err != nil {
		return err
	}
	return s.notifRepo.MarkRead(notificationID, userID)
}

// CancelTrip hard-deletes the trip, notifying every passenger, then
// drops the chat thread
func (s *TripService) CancelTrip(tripID, callerID string) error {
	if err := s.requireOwner(tripID, callerID); err != nil {
		return err
	}

	deleted, err := s.timedMutation("cancel", func() (*models.Trip, error) {
		return s.tripRepo.CancelTrip(tripID)
	})
	if err != nil {
		return err
	}

	// The thread is display-only once the trip is gone; a failure here
	// leaves orphaned rows for the purge job, not broken state.
	if err := s.chatRepo.DeleteByTrip(tripID); err != nil {
		s.logger.WithError(err).WithField("trip_id", tripID).Warn("Failed to delete chat thread for cancelled trip")
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":    tripID,
		"passengers": len(deleted.Passengers),
	}).Info("Trip cancelled")

	s.bus.Publish(events.Event{Type: events.TripDeleted, TripID: tripID, Trip: deleted})
	for i := range deleted.Passengers {
		s.notifyUser(deleted.Passengers[i].UID, tripID)
	}
	if err := s.producer.Publish("cancelled", tripID, callerID, deleted); err != nil {
		s.logger.WithError(err).Warn("Failed to publish trip event")
	}
	return nil
}

// ToggleClosed flips the manual availability gate
func (s *TripService) ToggleClosed(tripID, callerID string) (*models.Trip, error) {
	if err := s.requireOwner(tripID, callerID); err != nil {
		return nil, err
	}

	updated, err := s.timedMutation("toggle_closed", func() (*models.Trip, error) {
		return s.tripRepo.ToggleClosed(tripID)
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation("closed_toggled", updated, callerID)
	return updated, nil
}

// UpdateTrip applies an owner edit
func (s *TripService) UpdateTrip(tripID, callerID string, req *models.UpdateTripRequest) (*models.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireOwner(tripID, callerID); err != nil {
		return nil, err
	}

	updated, err := s.timedMutation("update", func() (*models.Trip, error) {
		return s.tripRepo.UpdateTrip(tripID, req)
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation("updated", updated, callerID)
	return updated, nil
}

// requireOwner verifies the caller owns the trip
func (s *TripService) requireOwner(tripID, callerID string) error {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return err
	}
	if trip.DriverID != callerID {
		return ErrNotTripOwner
	}
	return nil
}

// checkInvitation verifies the notification is an unread invitation for
// this trip addressed to this user
func (s *TripService) checkInvitation(tripID, userID, notificationID string) error {
	notif, err := s.notifRepo.GetByID(notificationID, userID)
	if err != nil {
		return err
	}
	if notif.Type != models.NotificationTypeInvite ||
		notif.RelatedTripID == nil || *notif.RelatedTripID != tripID {
		return ErrInvitationMismatch
	}
	return nil
}

// timedMutation wraps a reconciliation transaction with metrics
func (s *TripService) timedMutation(op string, fn func() (*models.Trip, error)) (*models.Trip, error) {
	start := time.Now()
	trip, err := fn()
	observability.TripMutationDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.TripMutationsTotal.WithLabelValues(op, outcome).Inc()
	return trip, err
}

// afterMutation fans out a committed trip change
func (s *TripService) afterMutation(event string, trip *models.Trip, actorID string) {
	s.bus.Publish(events.Event{Type: events.TripUpserted, TripID: trip.ID, Trip: trip})
	if err := s.producer.Publish(event, trip.ID, actorID, trip); err != nil {
		s.logger.WithError(err).Warn("Failed to publish trip event")
	}
}

// notifyUser signals a new inbox entry to live views. The notification
// row itself was written inside the reconciliation transaction.
func (s *TripService) notifyUser(userID, tripID string) {
	observability.NotificationsCreatedTotal.Inc()
	s.bus.Publish(events.Event{Type: events.NotificationCreated, TripID: tripID, UserID: userID})
}

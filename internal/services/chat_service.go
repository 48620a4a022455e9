package services

import (
	"context"
	"time"

	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/events"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// WatermarkSkewBuffer is added to "now" when a chat is opened. The
	// server assigns message timestamps after the client reads them, so
	// marking read at exactly "now" would let a just-read message
	// reappear as unread. Three minutes absorbs the skew.
	WatermarkSkewBuffer = 180 * time.Second

	// watermarkMessageLead is how far past the newest message the
	// watermark advances when that message is newer than the buffered
	// "now".
	watermarkMessageLead = 10 * time.Second
)

// WatermarkStore is the slice of the device state store the chat
// service needs
type WatermarkStore interface {
	GetWatermark(ctx context.Context, tripID, userID, deviceID string) (time.Time, error)
	SetWatermark(ctx context.Context, tripID, userID, deviceID string, watermark time.Time) error
}

// ChatService manages trip chat threads and the per-device read
// watermarks that back unread badges.
type ChatService struct {
	chatRepo *database.ChatRepository
	tripRepo *database.TripRepository
	state    WatermarkStore
	bus      *events.Bus
	logger   *logrus.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	chatRepo *database.ChatRepository,
	tripRepo *database.TripRepository,
	state WatermarkStore,
	bus *events.Bus,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		tripRepo: tripRepo,
		state:    state,
		bus:      bus,
		logger:   logger,
	}
}

// SendMessage appends a message to a trip's thread. Only the owner and
// listed passengers may post.
func (s *ChatService) SendMessage(tripID string, sender *models.User, req *models.SendMessageRequest) (*models.ChatMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireMember(tripID, sender.ID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		TripID:     tripID,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Type:       req.Type,
		Content:    req.Content,
	}
	if err := s.chatRepo.Create(msg); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{Type: events.ChatMessageSent, TripID: tripID, Message: msg})
	return msg, nil
}

// ListMessages returns a trip's thread in chronological order
func (s *ChatService) ListMessages(tripID, userID string, limit int) ([]models.ChatMessage, error) {
	if err := s.requireMember(tripID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	return s.chatRepo.ListByTrip(tripID, limit)
}

// AdvanceWatermark records that the user has just read the thread on
// this device. The watermark is "now" plus the skew buffer, pushed
// further when the newest message already sits past that point. The
// write is best-effort: on failure the previous watermark stays and the
// badge clears on a later read. Other in-memory views of the trip learn
// about the advance through the bus immediately.
func (s *ChatService) AdvanceWatermark(ctx context.Context, tripID, userID, deviceID string) time.Time {
	watermark := time.Now().Add(WatermarkSkewBuffer)

	last, err := s.chatRepo.LastMessageTime(tripID)
	if err != nil {
		s.logger.WithError(err).WithField("trip_id", tripID).Warn("Failed to read last message time")
	} else if last.After(watermark) {
		watermark = last.Add(watermarkMessageLead)
	}

	if err := s.state.SetWatermark(ctx, tripID, userID, deviceID, watermark); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"trip_id": tripID,
			"user_id": userID,
		}).Warn("Failed to persist read watermark")
		return watermark
	}

	s.bus.Publish(events.Event{
		Type:      events.WatermarkAdvanced,
		TripID:    tripID,
		UserID:    userID,
		Watermark: watermark,
	})
	return watermark
}

// UnreadCount computes the unread badge for a trip card: messages from
// other senders newer than this device's watermark.
func (s *ChatService) UnreadCount(ctx context.Context, tripID, userID, deviceID string) (int, error) {
	if err := s.requireMember(tripID, userID); err != nil {
		return 0, err
	}
	watermark, err := s.state.GetWatermark(ctx, tripID, userID, deviceID)
	if err != nil {
		s.logger.WithError(err).WithField("trip_id", tripID).Warn("Failed to load read watermark")
		// Fall back to the zero watermark: over-counting beats a crash.
	}
	return s.chatRepo.CountOthersSince(tripID, userID, watermark)
}

// requireMember verifies the user is the trip owner or a listed
// passenger
func (s *ChatService) requireMember(tripID, userID string) error {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return err
	}
	if trip.DriverID == userID || trip.FindPassenger(userID) >= 0 {
		return nil
	}
	return ErrNotTripMember
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/events"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServiceDB wraps a sqlmock connection for use by the repositories
// under a service
func newServiceDB(t *testing.T) (*database.PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

var serviceTripColumns = []string{
	"id", "type", "driver_id", "driver_name", "driver_photo", "driver_phone",
	"direction", "departure_time", "available_seats", "pickup_location",
	"passengers", "is_closed", "created_at", "updated_at",
}

// memberTripRow builds a trip row owned by owner-1 with passenger-1
// approved
func memberTripRow(t *testing.T) *sqlmock.Rows {
	t.Helper()
	passengers := models.PassengerList{
		{UID: "passenger-1", Name: "Kamala Silva", Status: models.PassengerStatusApproved},
	}
	raw, err := json.Marshal(passengers)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows(serviceTripColumns).AddRow(
		"trip-1", "offer", "owner-1", "Nimal Perera", "", "0771234567",
		"to_city", now.Add(2*time.Hour), 2, "Clock tower",
		raw, false, now, now,
	)
}

// fakeWatermarkStore is an in-memory WatermarkStore
type fakeWatermarkStore struct {
	watermarks map[string]time.Time
	getErr     error
	setErr     error
}

func newFakeWatermarkStore() *fakeWatermarkStore {
	return &fakeWatermarkStore{watermarks: make(map[string]time.Time)}
}

func (f *fakeWatermarkStore) GetWatermark(_ context.Context, tripID, userID, deviceID string) (time.Time, error) {
	if f.getErr != nil {
		return time.Time{}, f.getErr
	}
	return f.watermarks[tripID+":"+userID+":"+deviceID], nil
}

func (f *fakeWatermarkStore) SetWatermark(_ context.Context, tripID, userID, deviceID string, watermark time.Time) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.watermarks[tripID+":"+userID+":"+deviceID] = watermark
	return nil
}

func newChatService(db *database.PostgresDB, state WatermarkStore, bus *events.Bus) *ChatService {
	return NewChatService(
		database.NewChatRepository(db),
		database.NewTripRepository(db),
		state,
		bus,
		testLogger(),
	)
}

func TestChatSendMessage(t *testing.T) {
	t.Run("Member Can Post", func(t *testing.T) {
		db, mock := newServiceDB(t)
		bus := events.NewBus()
		received, cancel := bus.Subscribe(4)
		defer cancel()
		svc := newChatService(db, newFakeWatermarkStore(), bus)

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs("trip-1").
			WillReturnRows(memberTripRow(t))
		mock.ExpectQuery(`INSERT INTO chat_messages`).
			WithArgs(sqlmock.AnyArg(), "trip-1", "passenger-1", "Kamala Silva", "text", "see you at the tower").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		sender := &models.User{ID: "passenger-1", Name: "Kamala Silva"}
		msg, err := svc.SendMessage("trip-1", sender, &models.SendMessageRequest{Content: "see you at the tower"})
		require.NoError(t, err)
		assert.Equal(t, models.ChatMessageTypeText, msg.Type)
		assert.NotEmpty(t, msg.ID)

		select {
		case event := <-received:
			assert.Equal(t, events.ChatMessageSent, event.Type)
			assert.Equal(t, "trip-1", event.TripID)
			require.NotNil(t, event.Message)
			assert.Equal(t, msg.ID, event.Message.ID)
		default:
			t.Fatal("expected a chat event on the bus")
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Non-Member Rejected", func(t *testing.T) {
		db, mock := newServiceDB(t)
		svc := newChatService(db, newFakeWatermarkStore(), events.NewBus())

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs("trip-1").
			WillReturnRows(memberTripRow(t))

		sender := &models.User{ID: "stranger-1", Name: "Sunil Fernando"}
		_, err := svc.SendMessage("trip-1", sender, &models.SendMessageRequest{Content: "hello"})
		assert.ErrorIs(t, err, ErrNotTripMember)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Message Rejected Before Lookup", func(t *testing.T) {
		db, mock := newServiceDB(t)
		svc := newChatService(db, newFakeWatermarkStore(), events.NewBus())

		sender := &models.User{ID: "passenger-1"}
		_, err := svc.SendMessage("trip-1", sender, &models.SendMessageRequest{Type: "video", Content: "x"})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdvanceWatermark(t *testing.T) {
	t.Run("Buffered Past Now", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeWatermarkStore()
		bus := events.NewBus()
		received, cancel := bus.Subscribe(4)
		defer cancel()
		svc := newChatService(db, state, bus)

		// newest message is in the past, so the buffered clock wins
		mock.ExpectQuery(`SELECT MAX\(created_at\) FROM chat_messages`).
			WithArgs("trip-1").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(time.Now().Add(-time.Hour)))

		before := time.Now()
		watermark := svc.AdvanceWatermark(context.Background(), "trip-1", "passenger-1", "device-1")

		lower := before.Add(WatermarkSkewBuffer - time.Second)
		upper := time.Now().Add(WatermarkSkewBuffer + time.Second)
		assert.True(t, watermark.After(lower) && watermark.Before(upper),
			"watermark %v outside expected window", watermark)
		assert.Equal(t, watermark, state.watermarks["trip-1:passenger-1:device-1"])

		select {
		case event := <-received:
			assert.Equal(t, events.WatermarkAdvanced, event.Type)
			assert.Equal(t, "passenger-1", event.UserID)
			assert.Equal(t, watermark, event.Watermark)
		default:
			t.Fatal("expected a watermark event on the bus")
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Newest Message Pushes Watermark Further", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeWatermarkStore()
		svc := newChatService(db, state, events.NewBus())

		last := time.Now().Add(10 * time.Minute)
		mock.ExpectQuery(`SELECT MAX\(created_at\) FROM chat_messages`).
			WithArgs("trip-1").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(last))

		watermark := svc.AdvanceWatermark(context.Background(), "trip-1", "passenger-1", "device-1")
		assert.WithinDuration(t, last.Add(10*time.Second), watermark, time.Second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Store Failure Still Returns Watermark", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeWatermarkStore()
		state.setErr = errors.New("redis down")
		bus := events.NewBus()
		received, cancel := bus.Subscribe(4)
		defer cancel()
		svc := newChatService(db, state, bus)

		mock.ExpectQuery(`SELECT MAX\(created_at\) FROM chat_messages`).
			WithArgs("trip-1").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		watermark := svc.AdvanceWatermark(context.Background(), "trip-1", "passenger-1", "device-1")
		assert.False(t, watermark.IsZero())

		// no event when nothing was persisted
		select {
		case <-received:
			t.Fatal("unexpected event after failed persist")
		default:
		}
	})
}

func TestChatUnreadCount(t *testing.T) {
	t.Run("Counts Against Device Watermark", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeWatermarkStore()
		watermark := time.Now().Add(-time.Hour)
		state.watermarks["trip-1:passenger-1:device-1"] = watermark
		svc := newChatService(db, state, events.NewBus())

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs("trip-1").
			WillReturnRows(memberTripRow(t))
		mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WithArgs("trip-1", "passenger-1", watermark).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := svc.UnreadCount(context.Background(), "trip-1", "passenger-1", "device-1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Watermark Lookup Failure Falls Back To Zero", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeWatermarkStore()
		state.getErr = errors.New("redis down")
		svc := newChatService(db, state, events.NewBus())

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs("trip-1").
			WillReturnRows(memberTripRow(t))
		mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WithArgs("trip-1", "passenger-1", time.Time{}).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

		count, err := svc.UnreadCount(context.Background(), "trip-1", "passenger-1", "device-1")
		require.NoError(t, err)
		assert.Equal(t, 5, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Non-Member Rejected", func(t *testing.T) {
		db, mock := newServiceDB(t)
		svc := newChatService(db, newFakeWatermarkStore(), events.NewBus())

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs("trip-1").
			WillReturnRows(memberTripRow(t))

		_, err := svc.UnreadCount(context.Background(), "trip-1", "stranger-1", "device-1")
		assert.ErrorIs(t, err, ErrNotTripMember)
	})
}

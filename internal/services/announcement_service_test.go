package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminToken = "broadcast-token"

func testTokenHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminToken), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// fakeDismissalStore is an in-memory DismissalStore
type fakeDismissalStore struct {
	dismissed map[string]bool
	err       error
}

func newFakeDismissalStore() *fakeDismissalStore {
	return &fakeDismissalStore{dismissed: make(map[string]bool)}
}

func (f *fakeDismissalStore) DismissAnnouncement(_ context.Context, _, _, announcementID string) error {
	if f.err != nil {
		return f.err
	}
	f.dismissed[announcementID] = true
	return nil
}

func (f *fakeDismissalStore) DismissedAnnouncements(_ context.Context, _, _ string) (map[string]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.dismissed, nil
}

func announcementRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "message", "is_active", "created_at"})
	for _, id := range ids {
		rows.AddRow(id, "Service notice", "Road closed near the junction", true, time.Now())
	}
	return rows
}

func TestCheckAdminToken(t *testing.T) {
	t.Run("Valid Token", func(t *testing.T) {
		svc := NewAnnouncementService(nil, nil, testTokenHash(t), testLogger())
		assert.NoError(t, svc.CheckAdminToken(testAdminToken))
	})

	t.Run("Wrong Token", func(t *testing.T) {
		svc := NewAnnouncementService(nil, nil, testTokenHash(t), testLogger())
		assert.ErrorIs(t, svc.CheckAdminToken("guess"), ErrAdminToken)
	})

	t.Run("No Hash Configured", func(t *testing.T) {
		svc := NewAnnouncementService(nil, nil, "", testLogger())
		assert.ErrorIs(t, svc.CheckAdminToken(testAdminToken), ErrAdminDisabled)
	})
}

func TestCreateAnnouncement(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newServiceDB(t)
		svc := NewAnnouncementService(database.NewAnnouncementRepository(db), newFakeDismissalStore(), testTokenHash(t), testLogger())

		mock.ExpectQuery(`INSERT INTO announcements`).
			WithArgs(sqlmock.AnyArg(), "Service notice", "Road closed near the junction", true).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		ann, err := svc.Create(testAdminToken, &models.CreateAnnouncementRequest{
			Title:   "Service notice",
			Message: "Road closed near the junction",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, ann.ID)
		assert.True(t, ann.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Bad Token Never Reaches The Store", func(t *testing.T) {
		db, mock := newServiceDB(t)
		svc := NewAnnouncementService(database.NewAnnouncementRepository(db), newFakeDismissalStore(), testTokenHash(t), testLogger())

		_, err := svc.Create("guess", &models.CreateAnnouncementRequest{Title: "x", Message: "y"})
		assert.ErrorIs(t, err, ErrAdminToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListForUser(t *testing.T) {
	t.Run("Filters Dismissed", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeDismissalStore()
		state.dismissed["ann-1"] = true
		svc := NewAnnouncementService(database.NewAnnouncementRepository(db), state, "", testLogger())

		mock.ExpectQuery(`SELECT (.+) FROM announcements`).
			WillReturnRows(announcementRows("ann-1", "ann-2"))

		visible, err := svc.ListForUser(context.Background(), "user-1", "device-1")
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "ann-2", visible[0].ID)
	})

	t.Run("Dismissal Lookup Failure Shows Everything", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeDismissalStore()
		state.err = errors.New("redis down")
		svc := NewAnnouncementService(database.NewAnnouncementRepository(db), state, "", testLogger())

		mock.ExpectQuery(`SELECT (.+) FROM announcements`).
			WillReturnRows(announcementRows("ann-1", "ann-2"))

		visible, err := svc.ListForUser(context.Background(), "user-1", "device-1")
		require.NoError(t, err)
		assert.Len(t, visible, 2)
	})
}

func TestDismissAnnouncement(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newServiceDB(t)
		state := newFakeDismissalStore()
		svc := NewAnnouncementService(database.NewAnnouncementRepository(db), state, "", testLogger())

		mock.ExpectQuery(`SELECT (.+) FROM announcements WHERE id = \$1`).
			WithArgs("ann-1").
			WillReturnRows(announcementRows("ann-1"))

		require.NoError(t, svc.Dismiss(context.Background(), "user-1", "device-1", "ann-1"))
		assert.True(t, state.dismissed["ann-1"])
	})

	t.Run("Unknown Announcement", func(t *testing.T) {
		db, mock := newServiceDB(t)
		svc := NewAnnouncementService(database.NewAnnouncementRepository(db), newFakeDismissalStore(), "", testLogger())

		mock.ExpectQuery(`SELECT (.+) FROM announcements WHERE id = \$1`).
			WithArgs("ann-404").
			WillReturnRows(announcementRows())

		err := svc.Dismiss(context.Background(), "user-1", "device-1", "ann-404")
		assert.ErrorIs(t, err, database.ErrAnnouncementNotFound)
	})
}

func TestDeactivateAnnouncement(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewAnnouncementService(database.NewAnnouncementRepository(db), newFakeDismissalStore(), testTokenHash(t), testLogger())

	mock.ExpectExec(`UPDATE announcements SET is_active = false`).
		WithArgs("ann-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Deactivate(testAdminToken, "ann-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

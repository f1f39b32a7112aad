package checkins

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

var sessionColumnNames = []string{"id", "event_id", "user_id", "check_in_time", "check_out_time",
	"checked_in_by_admin", "checked_out_by_admin", "latitude", "longitude"}

func TestRepositoryInsertSessionAlreadyOpen(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)
	s := &models.CheckInSession{ID: uuid.New(), EventID: uuid.New(), UserID: uuid.New(), CheckInTime: time.Now().UTC()}

	mock.ExpectExec(`INSERT INTO event_checkins`).
		WithArgs(s.ID, s.EventID, s.UserID, s.CheckInTime, false, (*float64)(nil), (*float64)(nil)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: openSessionIndex})

	err = repo.InsertSession(context.Background(), s)
	require.ErrorIs(t, err, apperr.ErrAlreadyCheckedIn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCloseLatestSession(t *testing.T) {
	in := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	out := in.Add(30*time.Minute + 15*time.Second)

	t.Run("closes", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewRepository(mock)
		id, eventID, userID := uuid.New(), uuid.New(), uuid.New()

		mock.ExpectQuery(`UPDATE event_checkins`).
			WithArgs(eventID, userID, out, true).
			WillReturnRows(pgxmock.NewRows(sessionColumnNames).
				AddRow(id, eventID, userID, in, &out, false, true, (*float64)(nil), (*float64)(nil)))

		s, err := repo.CloseLatestSession(context.Background(), eventID, userID, out, true)
		require.NoError(t, err)
		assert.Equal(t, id, s.ID)
		require.NotNil(t, s.CheckOutTime)
		assert.Equal(t, out, *s.CheckOutTime)
		assert.True(t, s.CheckedOutByAdmin)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing open", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewRepository(mock)
		eventID, userID := uuid.New(), uuid.New()

		mock.ExpectQuery(`UPDATE event_checkins`).
			WithArgs(eventID, userID, out, false).
			WillReturnRows(pgxmock.NewRows(sessionColumnNames))

		_, err = repo.CloseLatestSession(context.Background(), eventID, userID, out, false)
		require.ErrorIs(t, err, apperr.ErrNoActiveSession)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryGetActiveSessionNone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)
	eventID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM event_checkins`).
		WithArgs(eventID, userID).
		WillReturnRows(pgxmock.NewRows(sessionColumnNames))

	s, err := repo.GetActiveSession(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.Nil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

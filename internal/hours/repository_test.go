package hours

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

func TestRepositoryInsertHours(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	entry := &models.VolunteerHours{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		UserID:    uuid.New(),
		EventID:   uuid.New(),
		Date:      time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		Hours:     decimal.RequireFromString("0.504167"),
	}
	created := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO volunteer_hours`).
		WithArgs(entry.ID, entry.SessionID, entry.UserID, entry.EventID, entry.OrganizationID, entry.Date, "0.504167", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery(`INSERT INTO volunteer_hours`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))

	inserted, err := repo.InsertHours(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, created, entry.CreatedAt)

	inserted, err = repo.InsertHours(context.Background(), entry)
	require.NoError(t, err)
	assert.False(t, inserted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySumHours(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	user, org := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(hours\), 0\)::text FROM volunteer_hours`).
		WithArgs(user, &org, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow("3.250001"))

	total, err := repo.SumHours(context.Background(), user, models.HoursScope{OrganizationID: &org})
	require.NoError(t, err)
	assert.Equal(t, "3.250001", total.StringFixed(Places))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetHoursBySessionNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	sid := uuid.New()
	mock.ExpectQuery(`FROM volunteer_hours WHERE session_id = \$1`).
		WithArgs(sid).
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_id", "user_id", "event_id", "organization_id", "date", "hours", "notes", "created_at"}))

	_, err = repo.GetHoursBySession(context.Background(), sid)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListUnrecordedSessionsCutoff(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	cutoff := time.Date(2024, 5, 4, 11, 0, 0, 0, time.UTC)
	in, out := cutoff.Add(-2*time.Hour), cutoff.Add(-time.Hour)
	sid, eid, uid, org := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery(`check_out_time <= \$1 AND h.id IS NULL.+LIMIT \$2`).
		WithArgs(cutoff, 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_id", "user_id", "check_in_time", "check_out_time",
			"checked_in_by_admin", "checked_out_by_admin", "latitude", "longitude", "organization_id"}).
			AddRow(sid, eid, uid, in, &out, false, true, (*float64)(nil), (*float64)(nil), org))

	list, err := repo.ListUnrecordedSessions(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sid, list[0].Session.ID)
	assert.Equal(t, org, list[0].OrganizationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

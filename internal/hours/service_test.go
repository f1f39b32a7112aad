package hours

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/store/memory"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

type fixture struct {
	store *memory.Store
	org   uuid.UUID
	event *models.Event
	user  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	org := &models.Organization{Name: "Food Bank", Slug: "food-bank"}
	require.NoError(t, st.CreateOrganization(ctx, org))
	ev := &models.Event{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Title:          "Saturday sort",
		MaxAttendees:   10,
		Status:         models.EventStatusInProgress,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, st.InsertEvent(ctx, ev))
	return &fixture{store: st, org: org.ID, event: ev, user: uuid.New()}
}

// closedSession opens and closes a session in the store.
func (f *fixture) closedSession(t *testing.T, in, out time.Time) *models.CheckInSession {
	t.Helper()
	ctx := context.Background()
	s := &models.CheckInSession{ID: uuid.New(), EventID: f.event.ID, UserID: f.user, CheckInTime: in}
	require.NoError(t, f.store.InsertSession(ctx, s))
	closed, err := f.store.CloseLatestSession(ctx, f.event.ID, f.user, out, false)
	require.NoError(t, err)
	return closed
}

func TestRecordSession(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	in := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	session := f.closedSession(t, in, in.Add(30*time.Minute+15*time.Second))

	entry, err := ledger.RecordSession(context.Background(), session, f.org, "self check-out")
	require.NoError(t, err)
	assert.Equal(t, "0.504167", entry.Hours.StringFixed(Places))
	assert.Equal(t, session.ID, entry.SessionID)
	assert.Equal(t, f.org, entry.OrganizationID)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), entry.Date)
	assert.Equal(t, "self check-out", entry.Notes)
}

func TestRecordSessionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	in := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	session := f.closedSession(t, in, in.Add(time.Hour))

	first, err := ledger.RecordSession(context.Background(), session, f.org, "")
	require.NoError(t, err)
	second, err := ledger.RecordSession(context.Background(), session, f.org, "again")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	entries, err := ledger.ListByUser(context.Background(), f.user, models.HoursScope{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordSessionRejectsOpenSession(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	open := &models.CheckInSession{ID: uuid.New(), EventID: f.event.ID, UserID: f.user, CheckInTime: time.Now()}

	_, err := ledger.RecordSession(context.Background(), open, f.org, "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestTotalHours(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	ctx := context.Background()
	in := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	for _, d := range []time.Duration{time.Hour, 30 * time.Minute, 15 * time.Second} {
		s := f.closedSession(t, in, in.Add(d))
		_, err := ledger.RecordSession(ctx, s, f.org, "")
		require.NoError(t, err)
		in = in.Add(2 * time.Hour)
	}

	byOrg, err := ledger.TotalHours(ctx, f.user, models.HoursScope{OrganizationID: &f.org})
	require.NoError(t, err)
	assert.Equal(t, "1.504167", byOrg.Hours.StringFixed(Places))

	byEvent, err := ledger.TotalHours(ctx, f.user, models.HoursScope{EventID: &f.event.ID})
	require.NoError(t, err)
	assert.True(t, byOrg.Hours.Equal(byEvent.Hours))

	other := uuid.New()
	none, err := ledger.TotalHours(ctx, f.user, models.HoursScope{OrganizationID: &other})
	require.NoError(t, err)
	assert.True(t, none.Hours.IsZero())
}

func TestTotalHoursScopeValidation(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	tests := []struct {
		name  string
		scope models.HoursScope
	}{
		{"empty", models.HoursScope{}},
		{"both", models.HoursScope{OrganizationID: &f.org, EventID: &f.event.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.TotalHours(context.Background(), f.user, tt.scope)
			require.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}
}

func TestRecordBySessionID(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	in := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	s := f.closedSession(t, in, in.Add(2*time.Hour))

	entry, err := ledger.RecordBySessionID(context.Background(), s.ID, "retry")
	require.NoError(t, err)
	assert.Equal(t, "2.000000", entry.Hours.StringFixed(Places))
	assert.Equal(t, f.org, entry.OrganizationID)

	_, err = ledger.RecordBySessionID(context.Background(), uuid.New(), "retry")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReconcilerSweep(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	ctx := context.Background()
	in := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)

	recorded := f.closedSession(t, in, in.Add(time.Hour))
	_, err := ledger.RecordSession(ctx, recorded, f.org, "")
	require.NoError(t, err)
	missed := f.closedSession(t, in.Add(2*time.Hour), in.Add(3*time.Hour))

	r := NewReconciler(ledger, f.store, 10, nil)
	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entry, err := f.store.GetHoursBySession(ctx, missed.ID)
	require.NoError(t, err)
	assert.Equal(t, ReconciledNote, entry.Notes)

	n, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconcilerGracePeriod(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedger(f.store, nil)
	ctx := context.Background()
	in := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	out := in.Add(time.Hour)
	s := f.closedSession(t, in, out)

	now := out.Add(time.Minute)
	r := NewReconciler(ledger, f.store, 10, nil).
		WithGrace(2 * time.Minute).
		WithClock(func() time.Time { return now })

	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "check-out may still be recording")
	_, err = f.store.GetHoursBySession(ctx, s.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	now = out.Add(2 * time.Minute)
	n, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

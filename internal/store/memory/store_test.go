package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

func seedEvent(t *testing.T, st *Store, capacity int, status models.EventStatus) *models.Event {
	t.Helper()
	ctx := context.Background()
	org := &models.Organization{Name: "Library", Slug: "library-" + uuid.NewString()[:8]}
	require.NoError(t, st.CreateOrganization(ctx, org))
	e := &models.Event{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Title:          "Book sale",
		MaxAttendees:   capacity,
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, st.InsertEvent(ctx, e))
	return e
}

func TestConcurrentRegistrationNeverExceedsCapacity(t *testing.T) {
	st := New()
	e := seedEvent(t, st, 5, models.EventStatusPublished)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.InsertRegistration(context.Background(), &models.Registration{
				ID: uuid.New(), EventID: e.ID, UserID: uuid.New(), Status: models.RegistrationConfirmed, JoinedAt: time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.CodeOf(err) == apperr.CodeEventFull:
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 45, full)
	got, err := st.GetEvent(context.Background(), e.ID)
	require.NoError(t, err)
	regs, err := st.ListRegistrationsByEvent(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, len(regs), got.SignupCount)
}

func TestConcurrentCheckInOpensOneSession(t *testing.T) {
	st := New()
	e := seedEvent(t, st, 5, models.EventStatusInProgress)
	user := uuid.New()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.InsertSession(context.Background(), &models.CheckInSession{
				ID: uuid.New(), EventID: e.ID, UserID: user, CheckInTime: time.Now(),
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrAlreadyCheckedIn)
	}
	assert.Equal(t, 1, succeeded)
	n, err := st.CountOpenSessions(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCloseLatestSessionClampsCheckOut(t *testing.T) {
	st := New()
	e := seedEvent(t, st, 5, models.EventStatusInProgress)
	user := uuid.New()
	in := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertSession(context.Background(), &models.CheckInSession{
		ID: uuid.New(), EventID: e.ID, UserID: user, CheckInTime: in,
	}))

	closed, err := st.CloseLatestSession(context.Background(), e.ID, user, in.Add(-time.Minute), true)
	require.NoError(t, err)
	assert.Equal(t, in, *closed.CheckOutTime)
	assert.True(t, closed.CheckedOutByAdmin)

	_, err = st.CloseLatestSession(context.Background(), e.ID, user, in, false)
	assert.ErrorIs(t, err, apperr.ErrNoActiveSession)
}

func TestRegistrationRejectionOrder(t *testing.T) {
	st := New()
	ctx := context.Background()
	draft := seedEvent(t, st, 1, models.EventStatusDraft)
	open := seedEvent(t, st, 1, models.EventStatusPublished)
	user := uuid.New()

	reg := func(eventID uuid.UUID) error {
		_, err := st.InsertRegistration(ctx, &models.Registration{ID: uuid.New(), EventID: eventID, UserID: user, JoinedAt: time.Now()})
		return err
	}

	assert.ErrorIs(t, reg(uuid.New()), apperr.ErrNotFound)
	assert.ErrorIs(t, reg(draft.ID), apperr.ErrEventNotOpen)
	require.NoError(t, reg(open.ID))
	assert.ErrorIs(t, reg(open.ID), apperr.ErrDuplicateRegistration, "duplicate wins over full")

	_, _, err := st.DeleteRegistration(ctx, open.ID, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotRegistered)
	e, err := st.GetEvent(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, e.SignupCount)
}

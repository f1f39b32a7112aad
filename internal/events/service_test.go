package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/organizations"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/store/memory"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

var fixedNow = time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []models.Change
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, c models.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

type env struct {
	store *memory.Store
	svc   *Service
	relay *recordingPublisher
	org   uuid.UUID
	admin uuid.UUID
}

func newEnv(t *testing.T, logger *zap.Logger) *env {
	t.Helper()
	st := memory.New()
	orgs := organizations.NewService(st, nil)
	admin := uuid.New()
	org, err := orgs.Create(context.Background(), admin, "Habitat", "habitat")
	require.NoError(t, err)
	relay := &recordingPublisher{}
	svc := NewService(st, orgs, logger).
		WithOpenSessionCounter(st).
		WithPublisher(relay).
		WithClock(func() time.Time { return fixedNow })
	return &env{store: st, svc: svc, relay: relay, org: org.ID, admin: admin}
}

func (e *env) create(t *testing.T) *models.Event {
	t.Helper()
	ev, err := e.svc.Create(context.Background(), e.admin, CreateInput{OrganizationID: e.org, Title: "Build day", MaxAttendees: 3})
	require.NoError(t, err)
	return ev
}

func TestCreate(t *testing.T) {
	e := newEnv(t, nil)
	ev := e.create(t)
	assert.Equal(t, models.EventStatusDraft, ev.Status)
	assert.Zero(t, ev.SignupCount)
	assert.Equal(t, e.admin, ev.CreatedBy)

	tests := []struct {
		name  string
		actor uuid.UUID
		in    CreateInput
		want  error
	}{
		{"zero capacity", e.admin, CreateInput{OrganizationID: e.org, Title: "x", MaxAttendees: 0}, apperr.ErrInvalidArgument},
		{"blank title", e.admin, CreateInput{OrganizationID: e.org, Title: " ", MaxAttendees: 1}, apperr.ErrInvalidArgument},
		{"non admin", uuid.New(), CreateInput{OrganizationID: e.org, Title: "x", MaxAttendees: 1}, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(context.Background(), tt.actor, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	ev := e.create(t)

	published, err := e.svc.Publish(ctx, ev.ID, e.admin)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, published.Status)
	assert.Nil(t, published.StartedAt)

	started, err := e.svc.Start(ctx, ev.ID, e.admin)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, fixedNow, *started.StartedAt)
	assert.Nil(t, started.EndedAt)

	ended, err := e.svc.End(ctx, ev.ID, e.admin)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, fixedNow, *ended.EndedAt)

	require.Len(t, e.relay.changes, 4)
	assert.Equal(t, models.ChangeInsert, e.relay.changes[0].Op)
	for _, c := range e.relay.changes[1:] {
		assert.Equal(t, models.TableEvents, c.Table)
		assert.Equal(t, models.ChangeUpdate, c.Op)
		assert.Equal(t, ev.ID, c.EventID)
		assert.Equal(t, e.org, c.OrganizationID)
		assert.Equal(t, ev.ID, c.RowID)
	}
}

func TestTransitionSurvivesRelayFailure(t *testing.T) {
	e := newEnv(t, nil)
	ev := e.create(t)
	e.relay.err = errors.New("redis down")

	published, err := e.svc.Publish(context.Background(), ev.ID, e.admin)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, published.Status)

	stored, err := e.store.GetEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, stored.Status)
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []func(*Service, context.Context, uuid.UUID, uuid.UUID) (*models.Event, error)
		op    func(*Service, context.Context, uuid.UUID, uuid.UUID) (*models.Event, error)
		want  models.EventStatus
	}{
		{"start draft", nil, (*Service).Start, models.EventStatusDraft},
		{"end draft", nil, (*Service).End, models.EventStatusDraft},
		{"publish twice", []func(*Service, context.Context, uuid.UUID, uuid.UUID) (*models.Event, error){(*Service).Publish}, (*Service).Publish, models.EventStatusPublished},
		{"start completed", []func(*Service, context.Context, uuid.UUID, uuid.UUID) (*models.Event, error){(*Service).Publish, (*Service).Start, (*Service).End}, (*Service).Start, models.EventStatusCompleted},
		{"cancel in progress", []func(*Service, context.Context, uuid.UUID, uuid.UUID) (*models.Event, error){(*Service).Publish, (*Service).Start}, (*Service).Cancel, models.EventStatusInProgress},
		{"publish cancelled", []func(*Service, context.Context, uuid.UUID, uuid.UUID) (*models.Event, error){(*Service).Cancel}, (*Service).Publish, models.EventStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)
			ctx := context.Background()
			ev := e.create(t)
			for _, step := range tt.setup {
				_, err := step(e.svc, ctx, ev.ID, e.admin)
				require.NoError(t, err)
			}

			_, err := tt.op(e.svc, ctx, ev.ID, e.admin)
			require.ErrorIs(t, err, apperr.ErrInvalidTransition)

			after, err := e.svc.Get(ctx, ev.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, after.Status)
		})
	}
}

func TestTransitionRequiresAdmin(t *testing.T) {
	e := newEnv(t, nil)
	ev := e.create(t)
	_, err := e.svc.Publish(context.Background(), ev.ID, uuid.New())
	require.ErrorIs(t, err, apperr.ErrForbidden)

	after, err := e.svc.Get(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusDraft, after.Status)
}

func TestTransitionUnknownEvent(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.svc.Start(context.Background(), uuid.New(), e.admin)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentStartSucceedsOnce(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	ev := e.create(t)
	_, err := e.svc.Publish(ctx, ev.ID, e.admin)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Start(ctx, ev.ID, e.admin)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)
}

func TestEndLeavesSessionsOpenAndWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := newEnv(t, zap.New(core))
	ctx := context.Background()
	ev := e.create(t)
	_, err := e.svc.Publish(ctx, ev.ID, e.admin)
	require.NoError(t, err)
	_, err = e.svc.Start(ctx, ev.ID, e.admin)
	require.NoError(t, err)

	member := uuid.New()
	require.NoError(t, e.store.InsertSession(ctx, &models.CheckInSession{ID: uuid.New(), EventID: ev.ID, UserID: member, CheckInTime: fixedNow}))

	_, err = e.svc.End(ctx, ev.ID, e.admin)
	require.NoError(t, err)

	open, err := e.store.CountOpenSessions(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, open)

	warnings := logs.FilterMessage("event ended with open check-in sessions").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(1), warnings[0].ContextMap()["open_sessions"])
}

package hours

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/obs"
)

// ReconciledNote marks entries written by the reconciler.
const ReconciledNote = "reconciled"

// Reconciler records closed sessions whose ledger entry was never written.
// Sessions closed within the grace period are left to the check-out that closed them.
type Reconciler struct {
	ledger    *Ledger
	store     Store
	batchSize int
	grace     time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewReconciler creates a reconciler that handles at most batchSize sessions per sweep.
func NewReconciler(ledger *Ledger, store Store, batchSize int, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reconciler{ledger: ledger, store: store, batchSize: batchSize, now: time.Now, logger: logger}
}

// WithGrace skips sessions closed less than d ago.
func (r *Reconciler) WithGrace(d time.Duration) *Reconciler {
	if d > 0 {
		r.grace = d
	}
	return r
}

// WithClock overrides the time source (tests).
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Sweep records one batch of unrecorded sessions and returns how many entries it wrote.
// A failure on one session is logged and the sweep continues.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	pending, err := r.store.ListUnrecordedSessions(ctx, r.now().Add(-r.grace), r.batchSize)
	if err != nil {
		return 0, err
	}
	recorded := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return recorded, ctx.Err()
		}
		session := p.Session
		if _, err := r.ledger.RecordSession(ctx, &session, p.OrganizationID, ReconciledNote); err != nil {
			obs.SideEffectFailed(obs.SideEffectHours)
			r.logger.Warn("reconcile session failed", zap.String("session_id", session.ID.String()), zap.Error(err))
			continue
		}
		recorded++
	}
	if recorded > 0 {
		r.logger.Info("reconciled volunteer hours", zap.Int("sessions", recorded))
	}
	return recorded, nil
}

// Package worker runs the background volunteer-hours jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/queue"
)

// ErrPermanent marks a job that will never succeed and must not be retried.
var ErrPermanent = errors.New("permanent job failure")

// JobQueue is the subset of the Redis queue the processor uses.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// HoursRecorder writes the ledger entry for a closed session.
type HoursRecorder interface {
	RecordBySessionID(ctx context.Context, sessionID uuid.UUID, notes string) (*models.VolunteerHours, error)
}

// HoursProcessor retries ledger writes that failed during check-out.
type HoursProcessor struct {
	ledger  HoursRecorder
	queue   JobQueue
	logger  *zap.Logger
	backoff time.Duration
}

// NewHoursProcessor creates a volunteer-hours retry processor.
func NewHoursProcessor(ledger HoursRecorder, q JobQueue, logger *zap.Logger) *HoursProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoursProcessor{ledger: ledger, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// WithBackoff overrides the pause after a failed job.
func (p *HoursProcessor) WithBackoff(d time.Duration) *HoursProcessor {
	p.backoff = d
	return p
}

// Process executes one job. Recording is idempotent, so a redelivered job is harmless.
func (p *HoursProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeHoursRecord {
		return fmt.Errorf("%w: unknown job type %s", ErrPermanent, job.Type)
	}
	payload, err := queue.DecodeHoursRecord(job)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	entry, err := p.ledger.RecordBySessionID(ctx, payload.SessionID, payload.Notes)
	if err != nil {
		switch apperr.CodeOf(err) {
		case apperr.CodeNotFound, apperr.CodeInvalidArgument:
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return fmt.Errorf("record session %s: %w", payload.SessionID, err)
	}

	p.logger.Info("volunteer hours recorded from queue",
		zap.String("session_id", payload.SessionID.String()),
		zap.String("hours", entry.Hours.String()),
		zap.Int("attempt", job.Attempt),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *HoursProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("hours worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, p.backoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		err = p.Process(ctx, job)
		switch {
		case err == nil:
		case errors.Is(err, ErrPermanent):
			p.logger.Error("dropping job", zap.String("job_id", job.ID), zap.Error(err))
		default:
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleep(ctx, p.backoff)
		}
	}
}

// Sweeper records closed sessions that have no ledger entry.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RunReconciler sweeps immediately and then on every tick until ctx is done.
func RunReconciler(ctx context.Context, s Sweeper, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("reconcile sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			logger.Info("reconciler stopping")
			return
		case <-ticker.C:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Package jobs runs background work queued by request handling. The only
// worker today is the interaction recorder, which drains the post-commit
// queue of activity records and reputation deltas.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// InteractionJob carries one activity record plus the reputation deltas it
// earns, already merged per user. Jobs are queued by AfterCommit hooks, so
// a job exists only for writes that actually committed.
type InteractionJob struct {
	ID          string // Trace ID, not the interaction's entity ID
	Interaction domain.Interaction
	// ReputationDeltas maps userID → signed delta. Actor and owner deltas
	// for the same user arrive pre-merged as a single entry.
	ReputationDeltas map[string]int
}

// NewInteractionJob builds a job with a fresh trace ID.
func NewInteractionJob(in domain.Interaction, deltas map[string]int) InteractionJob {
	return InteractionJob{
		ID:               uuid.NewString(),
		Interaction:      in,
		ReputationDeltas: deltas,
	}
}

// Recorder is the single consumer of the interaction queue. Each job is
// applied in its own transaction: the interaction document, its index row,
// and every reputation delta commit together.
type Recorder struct {
	store  *store.Store
	logger *logger.Logger
	queue  chan InteractionJob

	stopOnce sync.Once
	done     chan struct{}
}

// NewRecorder creates a recorder with the given queue capacity.
func NewRecorder(s *store.Store, log *logger.Logger, queueSize int) *Recorder {
	if queueSize < 1 {
		queueSize = 256
	}
	return &Recorder{
		store:  s,
		logger: log,
		queue:  make(chan InteractionJob, queueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue adds a job without blocking. When the queue is full the job is
// dropped with a warning: activity records are advisory, and a stalled
// request path would be worse than a lost ledger entry.
func (r *Recorder) Enqueue(job InteractionJob) {
	select {
	case r.queue <- job:
	default:
		r.logger.Warn("interaction queue full, dropping job",
			"job_id", job.ID,
			"action", string(job.Interaction.Action),
			"actor_id", job.Interaction.ActorID,
		)
	}
}

// Run consumes jobs until the context is canceled. On cancellation it
// drains whatever is already queued before returning.
func (r *Recorder) Run(ctx context.Context) {
	r.logger.Info("interaction recorder started", "queue_capacity", cap(r.queue))

	for {
		select {
		case job := <-r.queue:
			r.process(ctx, job)
		case <-ctx.Done():
			r.drain()
			close(r.done)
			return
		}
	}
}

// drain applies remaining jobs with a background context so shutdown
// doesn't lose committed work that was still queued.
func (r *Recorder) drain() {
	for {
		select {
		case job := <-r.queue:
			r.process(context.Background(), job)
		default:
			r.logger.Info("interaction recorder drained")
			return
		}
	}
}

// Wait blocks until Run has finished draining, or the context expires.
func (r *Recorder) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// maxAttempts bounds conflict retries per job. Reputation writes contend
// with each other under snapshot isolation when the same user earns deltas
// concurrently.
const maxAttempts = 3

func (r *Recorder) process(ctx context.Context, job InteractionJob) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = r.apply(ctx, job)
		if err == nil {
			return
		}
		if !errors.Is(err, store.ErrTxnConflict) {
			break
		}
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}

	r.logger.Error("failed to record interaction",
		"job_id", job.ID,
		"action", string(job.Interaction.Action),
		"actor_id", job.Interaction.ActorID,
		"error", err,
	)
}

func (r *Recorder) apply(ctx context.Context, job InteractionJob) error {
	return r.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		in := job.Interaction
		if err := r.store.PutInteraction(uow, &in); err != nil {
			return err
		}

		for userID, delta := range job.ReputationDeltas {
			if err := r.store.AdjustReputation(uow, userID, delta); err != nil {
				// The user may have never existed or the delta may race a
				// deletion; the activity record still stands.
				if errors.Is(err, store.ErrUserNotFound) {
					r.logger.Warn("reputation delta for missing user",
						"job_id", job.ID, "user_id", userID)
					continue
				}
				return err
			}
		}
		return nil
	})
}

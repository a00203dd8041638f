package service

import (
	"context"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/id"
	"github.com/answerhubapp/answerhub-server/internal/jobs"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// InteractionService queues activity records for asynchronous recording.
// Queueing happens in AfterCommit hooks, so an interaction exists only for
// writes that actually committed; the recorder applies the record and its
// reputation deltas in a separate transaction.
type InteractionService struct {
	store    *store.Store
	recorder *jobs.Recorder
	logger   *logger.Logger
}

// NewInteractionService creates a new interaction service.
func NewInteractionService(st *store.Store, recorder *jobs.Recorder, log *logger.Logger) *InteractionService {
	return &InteractionService{
		store:    st,
		recorder: recorder,
		logger:   log,
	}
}

// QueueAfterCommit registers a post-commit hook on the unit of work that
// enqueues the interaction with its computed reputation deltas. If the
// surrounding transaction rolls back, nothing is queued.
func (s *InteractionService) QueueAfterCommit(uow *store.UnitOfWork, actorID string, action domain.ActionKind, target domain.Target, ownerID string) {
	interactionID, err := id.Generate("int")
	if err != nil {
		s.logger.Error("failed to generate interaction ID", "error", err)
		return
	}

	in := domain.Interaction{
		ID:        interactionID,
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	deltas := reputationDeltas(action, target, actorID, ownerID)

	uow.AfterCommit(func() {
		s.recorder.Enqueue(jobs.NewInteractionJob(in, deltas))
	})
}

// Recent returns the actor's most recent interactions, newest first.
func (s *InteractionService) Recent(ctx context.Context, actorID string, limit int) ([]*domain.Interaction, error) {
	return s.store.RecentInteractions(ctx, actorID, limit)
}

package service

import (
	"context"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// VoteStatus describes the outcome of a vote toggle.
type VoteStatus string

const (
	// VoteAdded means no prior vote existed and one was recorded.
	VoteAdded VoteStatus = "added"
	// VoteRemoved means the same-direction vote existed and was withdrawn.
	VoteRemoved VoteStatus = "removed"
	// VoteFlipped means an opposite-direction vote was converted in place.
	VoteFlipped VoteStatus = "flipped"
)

// VoteResult is the outcome of a toggle.
type VoteResult struct {
	Status VoteStatus      `json:"status"`
	Kind   domain.VoteKind `json:"kind"`
	Target domain.Target   `json:"target"`
}

// VoteService implements the vote toggle. A user pressing the same button
// twice ends where they started; pressing the opposite button converts the
// vote in place. The vote record, both existence checks, and the counter
// write share one transaction, so concurrent toggles of the same vote
// conflict at commit rather than double-count.
type VoteService struct {
	store        *store.Store
	interactions *InteractionService
	logger       *logger.Logger
}

// NewVoteService creates a new vote service.
func NewVoteService(st *store.Store, interactions *InteractionService, log *logger.Logger) *VoteService {
	return &VoteService{
		store:        st,
		interactions: interactions,
		logger:       log,
	}
}

// Toggle applies one press of the kind button on the target by actorID.
func (s *VoteService) Toggle(ctx context.Context, actorID string, target domain.Target, kind domain.VoteKind) (*VoteResult, error) {
	if !target.Kind.Valid() {
		return nil, errors.Validationf("unknown target kind: %s", target.Kind)
	}
	if !kind.Valid() {
		return nil, errors.Validationf("unknown vote kind: %s", kind)
	}

	var result VoteResult
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		ownerID, err := s.store.TargetOwner(uow, target)
		if err != nil {
			if errors.Is(err, store.ErrQuestionNotFound) || errors.Is(err, store.ErrAnswerNotFound) {
				return errors.NotFoundf("%s not found", target.Kind)
			}
			return err
		}

		existing, err := s.store.GetVoteTxn(uow, actorID, target)
		switch {
		case errors.Is(err, store.ErrVoteNotFound):
			// First press: record the vote and bump its counter.
			v := &domain.Vote{
				AuthorID:  actorID,
				Target:    target,
				Kind:      kind,
				CreatedAt: time.Now(),
			}
			if err := s.store.PutVote(uow, v); err != nil {
				return err
			}
			up, down := counterDeltas(kind, 1)
			if err := s.store.AdjustVoteCounters(uow, target, up, down); err != nil {
				return err
			}
			s.interactions.QueueAfterCommit(uow, actorID, actionFor(kind), target, ownerID)
			result = VoteResult{Status: VoteAdded, Kind: kind, Target: target}
			return nil

		case err != nil:
			return err

		case existing.Kind == kind:
			// Same button again: withdraw the vote.
			if err := s.store.DeleteVote(uow, actorID, target); err != nil {
				return err
			}
			up, down := counterDeltas(kind, -1)
			if err := s.store.AdjustVoteCounters(uow, target, up, down); err != nil {
				return err
			}
			result = VoteResult{Status: VoteRemoved, Kind: kind, Target: target}
			return nil

		default:
			// Opposite button: convert the record in place. Only the new
			// direction's counter moves; the old one is left as-is.
			existing.Kind = kind
			existing.CreatedAt = time.Now()
			if err := s.store.PutVote(uow, existing); err != nil {
				return err
			}
			up, down := counterDeltas(kind, 1)
			if err := s.store.AdjustVoteCounters(uow, target, up, down); err != nil {
				return err
			}
			s.interactions.QueueAfterCommit(uow, actorID, actionFor(kind), target, ownerID)
			result = VoteResult{Status: VoteFlipped, Kind: kind, Target: target}
			return nil
		}
	})
	if err != nil {
		if errors.Is(err, store.ErrTxnConflict) {
			return nil, errors.Conflict("vote changed concurrently, retry")
		}
		return nil, err
	}

	s.logger.Info("vote toggled",
		"actor_id", actorID,
		"target", target.String(),
		"kind", string(kind),
		"status", string(result.Status),
	)
	return &result, nil
}

// Status returns the actor's current vote on the target, or nil if none.
func (s *VoteService) Status(ctx context.Context, actorID string, target domain.Target) (*domain.Vote, error) {
	v, err := s.store.GetVote(ctx, actorID, target)
	if errors.Is(err, store.ErrVoteNotFound) {
		return nil, nil
	}
	return v, err
}

// counterDeltas maps a vote kind and sign to (upDelta, downDelta).
func counterDeltas(kind domain.VoteKind, sign int) (upDelta, downDelta int) {
	if kind == domain.VoteUp {
		return sign, 0
	}
	return 0, sign
}

// actionFor maps a vote kind to its interaction action.
func actionFor(kind domain.VoteKind) domain.ActionKind {
	if kind == domain.VoteUp {
		return domain.ActionUpvote
	}
	return domain.ActionDownvote
}

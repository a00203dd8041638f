package store

import (
	"fmt"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// targetOps bundles the operations the vote and interaction engines need
// from a content type. Registered per kind so those engines stay free of
// type switches; adding a votable type means one more entry here.
type targetOps struct {
	owner  func(uow *UnitOfWork, id string) (string, error)
	adjust func(uow *UnitOfWork, id string, upDelta, downDelta int) error
}

// initTargets registers the operations for each target kind.
func (s *Store) initTargets() {
	s.targets = map[domain.TargetKind]targetOps{
		domain.TargetQuestion: {
			owner: func(uow *UnitOfWork, id string) (string, error) {
				q, err := s.GetQuestionTxn(uow, id)
				if err != nil {
					return "", err
				}
				return q.AuthorID, nil
			},
			adjust: func(uow *UnitOfWork, id string, upDelta, downDelta int) error {
				q, err := s.GetQuestionTxn(uow, id)
				if err != nil {
					return err
				}
				q.Upvotes = clampCounter(q.Upvotes + upDelta)
				q.Downvotes = clampCounter(q.Downvotes + downDelta)
				return s.PutQuestion(uow, q)
			},
		},
		domain.TargetAnswer: {
			owner: func(uow *UnitOfWork, id string) (string, error) {
				a, err := s.GetAnswerTxn(uow, id)
				if err != nil {
					return "", err
				}
				return a.AuthorID, nil
			},
			adjust: func(uow *UnitOfWork, id string, upDelta, downDelta int) error {
				a, err := s.GetAnswerTxn(uow, id)
				if err != nil {
					return err
				}
				a.Upvotes = clampCounter(a.Upvotes + upDelta)
				a.Downvotes = clampCounter(a.Downvotes + downDelta)
				return s.UpdateAnswer(uow, a)
			},
		},
	}
}

func clampCounter(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (s *Store) opsFor(kind domain.TargetKind) (targetOps, error) {
	ops, ok := s.targets[kind]
	if !ok {
		return targetOps{}, fmt.Errorf("unknown target kind: %s", kind)
	}
	return ops, nil
}

// TargetOwner returns the author of the target's content, read inside the
// unit of work.
func (s *Store) TargetOwner(uow *UnitOfWork, target domain.Target) (string, error) {
	ops, err := s.opsFor(target.Kind)
	if err != nil {
		return "", err
	}
	return ops.owner(uow, target.ID)
}

// AdjustVoteCounters applies deltas to the target's denormalized vote
// counters inside the unit of work. Counters never go below zero.
func (s *Store) AdjustVoteCounters(uow *UnitOfWork, target domain.Target, upDelta, downDelta int) error {
	ops, err := s.opsFor(target.Kind)
	if err != nil {
		return err
	}
	return ops.adjust(uow, target.ID, upDelta, downDelta)
}

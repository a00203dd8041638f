package service

import (
	"context"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// BookmarkStatus describes the outcome of a bookmark toggle.
type BookmarkStatus string

const (
	// BookmarkSaved means the question was added to the user's collection.
	BookmarkSaved BookmarkStatus = "saved"
	// BookmarkRemoved means the question was dropped from the collection.
	BookmarkRemoved BookmarkStatus = "removed"
)

// CollectionService manages each user's saved questions. Saving follows
// the same toggle shape as voting: one press saves, the next removes.
type CollectionService struct {
	store        *store.Store
	interactions *InteractionService
	logger       *logger.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(st *store.Store, interactions *InteractionService, log *logger.Logger) *CollectionService {
	return &CollectionService{
		store:        st,
		interactions: interactions,
		logger:       log,
	}
}

// Toggle saves the question for the user, or removes it if already saved.
func (s *CollectionService) Toggle(ctx context.Context, userID, questionID string) (BookmarkStatus, error) {
	var status BookmarkStatus
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		q, err := s.store.GetQuestionTxn(uow, questionID)
		if err != nil {
			return mapNotFound(err)
		}

		_, err = s.store.GetBookmarkTxn(uow, userID, questionID)
		switch {
		case errors.Is(err, store.ErrBookmarkNotFound):
			sq := &domain.SavedQuestion{
				UserID:     userID,
				QuestionID: questionID,
				CreatedAt:  time.Now(),
			}
			if err := s.store.PutBookmark(uow, sq); err != nil {
				return err
			}
			s.interactions.QueueAfterCommit(uow, userID, domain.ActionBookmark, q.Target(), q.AuthorID)
			status = BookmarkSaved
			return nil

		case err != nil:
			return err

		default:
			if err := s.store.DeleteBookmark(uow, userID, questionID); err != nil {
				return err
			}
			status = BookmarkRemoved
			return nil
		}
	})
	if err != nil {
		return "", mapConflict(err)
	}

	s.logger.Info("bookmark toggled", "user_id", userID, "question_id", questionID, "status", string(status))
	return status, nil
}

// IsSaved reports whether the user has the question in their collection.
func (s *CollectionService) IsSaved(ctx context.Context, userID, questionID string) (bool, error) {
	return s.store.IsBookmarked(ctx, userID, questionID)
}

// List returns one page of the user's saved questions, most recently
// saved first, resolved to full question records. Questions deleted since
// saving are skipped.
func (s *CollectionService) List(ctx context.Context, userID string, params store.PageParams) (store.Paged[*domain.Question], error) {
	saved, err := s.store.ListBookmarks(ctx, userID, params)
	if err != nil {
		return store.Paged[*domain.Question]{}, err
	}

	ids := make([]string, 0, len(saved.Items))
	for _, sq := range saved.Items {
		ids = append(ids, sq.QuestionID)
	}
	questions, err := s.store.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return store.Paged[*domain.Question]{}, err
	}

	return store.Paged[*domain.Question]{
		Items:   questions,
		Total:   saved.Total,
		HasNext: saved.HasNext,
	}, nil
}

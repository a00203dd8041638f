package service

import (
	"context"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
	"github.com/answerhubapp/answerhub-server/internal/id"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/store"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// AnswerService manages answers under a question. Answer writes keep the
// parent question's answer count in the same unit of work.
type AnswerService struct {
	store        *store.Store
	interactions *InteractionService
	validator    *validation.Validator
	logger       *logger.Logger
}

// NewAnswerService creates a new answer service.
func NewAnswerService(st *store.Store, interactions *InteractionService, v *validation.Validator, log *logger.Logger) *AnswerService {
	return &AnswerService{
		store:        st,
		interactions: interactions,
		validator:    v,
		logger:       log,
	}
}

// CreateAnswerRequest is the payload for answering a question.
type CreateAnswerRequest struct {
	Body string `json:"body" validate:"required,min=10"`
}

// UpdateAnswerRequest is the payload for editing an answer.
type UpdateAnswerRequest struct {
	Body string `json:"body" validate:"required,min=10"`
}

// Create posts an answer to the question.
func (s *AnswerService) Create(ctx context.Context, authorID, questionID string, req CreateAnswerRequest) (*domain.Answer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	answerID, err := id.Generate("a")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate answer ID")
	}

	var a *domain.Answer
	err = s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		if _, err := s.store.GetQuestionTxn(uow, questionID); err != nil {
			return mapNotFound(err)
		}

		now := time.Now()
		a = &domain.Answer{
			ID:         answerID,
			QuestionID: questionID,
			Body:       req.Body,
			AuthorID:   authorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.CreateAnswer(uow, a); err != nil {
			return err
		}

		s.interactions.QueueAfterCommit(uow, authorID, domain.ActionPost, a.Target(), authorID)
		uow.AfterCommit(func() {
			s.store.Emit(QuestionChanged{QuestionID: questionID})
		})
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}

	s.logger.Info("answer created", "answer_id", answerID, "question_id", questionID, "author_id", authorID)
	return a, nil
}

// Update edits an answer's body.
func (s *AnswerService) Update(ctx context.Context, actorID, answerID string, req UpdateAnswerRequest) (*domain.Answer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var a *domain.Answer
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		var err error
		a, err = s.store.GetAnswerTxn(uow, answerID)
		if err != nil {
			return mapNotFound(err)
		}
		if a.AuthorID != actorID {
			return errors.Forbidden("only the author can edit an answer")
		}

		a.Body = req.Body
		a.Touch()
		return s.store.UpdateAnswer(uow, a)
	})
	if err != nil {
		return nil, mapConflict(err)
	}

	s.logger.Info("answer updated", "answer_id", answerID, "actor_id", actorID)
	return a, nil
}

// Delete removes an answer, its votes, and its index row, and decrements
// the parent question's answer count atomically.
func (s *AnswerService) Delete(ctx context.Context, actorID, answerID string) error {
	var questionID string
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		a, err := s.store.GetAnswerTxn(uow, answerID)
		if err != nil {
			return mapNotFound(err)
		}
		if a.AuthorID != actorID {
			return errors.Forbidden("only the author can delete an answer")
		}
		questionID = a.QuestionID

		if _, err := s.store.DeleteAnswerCascade(uow, answerID); err != nil {
			return err
		}

		s.interactions.QueueAfterCommit(uow, actorID, domain.ActionDelete, a.Target(), a.AuthorID)
		uow.AfterCommit(func() {
			s.store.Emit(QuestionChanged{QuestionID: questionID})
		})
		return nil
	})
	if err != nil {
		return mapConflict(err)
	}

	s.logger.Info("answer deleted", "answer_id", answerID, "question_id", questionID, "actor_id", actorID)
	return nil
}

// Get returns an answer by ID.
func (s *AnswerService) Get(ctx context.Context, answerID string) (*domain.Answer, error) {
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return a, nil
}

// List returns one page of a question's answers.
func (s *AnswerService) List(ctx context.Context, questionID string, params store.PageParams, sortBy store.AnswerSort) (store.Paged[*domain.Answer], error) {
	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		return store.Paged[*domain.Answer]{}, mapNotFound(err)
	}
	return s.store.ListAnswers(ctx, questionID, params, sortBy)
}

package service

import (
	"context"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
	"github.com/answerhubapp/answerhub-server/internal/id"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
	"github.com/answerhubapp/answerhub-server/internal/ratelimit"
	"github.com/answerhubapp/answerhub-server/internal/search"
	"github.com/answerhubapp/answerhub-server/internal/store"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// SearchIndexer is the slice of the search index the question service
// needs. Index updates are best-effort: the store is the source of truth
// and a full reindex can always catch the index up.
type SearchIndexer interface {
	IndexQuestion(doc *search.QuestionDocument) error
	DeleteQuestion(questionID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexQuestion is a no-op.
func (NoopSearchIndexer) IndexQuestion(*search.QuestionDocument) error { return nil }

// DeleteQuestion is a no-op.
func (NoopSearchIndexer) DeleteQuestion(string) error { return nil }

// QuestionService orchestrates the question lifecycle: creation with tag
// binding, edits with tag diffing, and deletion with full cascade.
type QuestionService struct {
	store        *store.Store
	interactions *InteractionService
	search       SearchIndexer
	validator    *validation.Validator
	viewLimiter  *ratelimit.KeyedRateLimiter
	logger       *logger.Logger
}

// NewQuestionService creates a new question service.
func NewQuestionService(st *store.Store, interactions *InteractionService, searchIndexer SearchIndexer, v *validation.Validator, log *logger.Logger) *QuestionService {
	return &QuestionService{
		store:        st,
		interactions: interactions,
		search:       searchIndexer,
		validator:    v,
		// One counted view per viewer per question per minute.
		viewLimiter: ratelimit.New(1.0/60.0, 1),
		logger:      log,
	}
}

// Close releases service resources.
func (s *QuestionService) Close() {
	s.viewLimiter.Stop()
}

// CreateQuestionRequest is the payload for asking a question.
type CreateQuestionRequest struct {
	Title string   `json:"title" validate:"required,min=5,max=130"`
	Body  string   `json:"body" validate:"required,min=20"`
	Tags  []string `json:"tags" validate:"required,min=1,max=3,dive,min=1,max=30"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Title string   `json:"title" validate:"required,min=5,max=130"`
	Body  string   `json:"body" validate:"required,min=20"`
	Tags  []string `json:"tags" validate:"required,min=1,max=3,dive,min=1,max=30"`
}

// Create asks a new question. The document, every tag find-or-create, and
// every association row commit in one unit of work: a question is never
// visible with half its tags.
func (s *QuestionService) Create(ctx context.Context, authorID string, req CreateQuestionRequest) (*domain.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	questionID, err := id.Generate("q")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate question ID")
	}

	var q *domain.Question
	err = s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		now := time.Now()
		q = &domain.Question{
			ID:        questionID,
			Title:     req.Title,
			Body:      req.Body,
			AuthorID:  authorID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		for _, name := range dedupeTagNames(req.Tags) {
			tag, _, err := s.store.FindOrCreateTag(uow, name)
			if err != nil {
				return err
			}
			if err := s.store.AttachTagToQuestion(uow, tag.ID, questionID); err != nil {
				return err
			}
			q.TagIDs = append(q.TagIDs, tag.ID)
		}

		if err := s.store.PutQuestion(uow, q); err != nil {
			return err
		}

		s.interactions.QueueAfterCommit(uow, authorID, domain.ActionPost, q.Target(), authorID)
		uow.AfterCommit(func() {
			s.indexQuestion(q)
			s.store.Emit(QuestionChanged{QuestionID: questionID})
		})
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}

	s.logger.Info("question created", "question_id", questionID, "author_id", authorID, "tags", len(q.TagIDs))
	return q, nil
}

// Update edits title, body, and tag set. The tag diff attaches and
// detaches associations in the same unit of work as the document write, so
// counts stay conserved.
func (s *QuestionService) Update(ctx context.Context, actorID, questionID string, req UpdateQuestionRequest) (*domain.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var q *domain.Question
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		var err error
		q, err = s.store.GetQuestionTxn(uow, questionID)
		if err != nil {
			return mapNotFound(err)
		}
		if q.AuthorID != actorID {
			return errors.Forbidden("only the author can edit a question")
		}

		textChanged := q.Title != req.Title || q.Body != req.Body
		q.Title = req.Title
		q.Body = req.Body

		// Resolve the desired tag set, creating tags as needed.
		desired := make([]string, 0, len(req.Tags))
		desiredSet := make(map[string]bool, len(req.Tags))
		for _, name := range dedupeTagNames(req.Tags) {
			tag, _, err := s.store.FindOrCreateTag(uow, name)
			if err != nil {
				return err
			}
			desired = append(desired, tag.ID)
			desiredSet[tag.ID] = true
		}

		// Detach tags no longer wanted, attach new ones.
		tagsChanged := false
		for _, tagID := range q.TagIDs {
			if !desiredSet[tagID] {
				if err := s.store.DetachTagFromQuestion(uow, tagID, questionID); err != nil {
					return err
				}
				tagsChanged = true
			}
		}
		for _, tagID := range desired {
			if !q.HasTag(tagID) {
				if err := s.store.AttachTagToQuestion(uow, tagID, questionID); err != nil {
					return err
				}
				tagsChanged = true
			}
		}

		// A no-op edit writes nothing; UpdatedAt only moves on real change.
		if !textChanged && !tagsChanged {
			return nil
		}

		q.TagIDs = desired
		q.Touch()

		if err := s.store.PutQuestion(uow, q); err != nil {
			return err
		}

		uow.AfterCommit(func() {
			s.indexQuestion(q)
			s.store.Emit(QuestionChanged{QuestionID: questionID})
		})
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}

	s.logger.Info("question updated", "question_id", questionID, "actor_id", actorID)
	return q, nil
}

// Delete removes a question and cascades to answers, votes, tag
// associations, and bookmarks atomically.
func (s *QuestionService) Delete(ctx context.Context, actorID, questionID string) error {
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		q, err := s.store.GetQuestionTxn(uow, questionID)
		if err != nil {
			return mapNotFound(err)
		}
		if q.AuthorID != actorID {
			return errors.Forbidden("only the author can delete a question")
		}

		if _, err := s.store.DeleteQuestionCascade(uow, questionID); err != nil {
			return err
		}

		s.interactions.QueueAfterCommit(uow, actorID, domain.ActionDelete, q.Target(), q.AuthorID)
		uow.AfterCommit(func() {
			if err := s.search.DeleteQuestion(questionID); err != nil {
				s.logger.Warn("failed to remove question from search index", "question_id", questionID, "error", err)
			}
			s.store.Emit(QuestionChanged{QuestionID: questionID})
		})
		return nil
	})
	if err != nil {
		return mapConflict(err)
	}

	s.logger.Info("question deleted", "question_id", questionID, "actor_id", actorID)
	return nil
}

// Get returns a question by ID.
func (s *QuestionService) Get(ctx context.Context, questionID string) (*domain.Question, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return q, nil
}

// Tags resolves a question's tag IDs to tag records.
func (s *QuestionService) Tags(ctx context.Context, q *domain.Question) ([]*domain.Tag, error) {
	tags := make([]*domain.Tag, 0, len(q.TagIDs))
	for _, tagID := range q.TagIDs {
		t, err := s.store.GetTag(ctx, tagID)
		if err != nil {
			if errors.Is(err, store.ErrTagNotFound) {
				continue
			}
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// List returns one page of questions matching the filter.
func (s *QuestionService) List(ctx context.Context, filter store.QuestionFilter, params store.PageParams) (store.Paged[*domain.Question], error) {
	return s.store.ListQuestions(ctx, filter, params)
}

// RecordView counts a view of the question by viewerID, at most once per
// viewer per question per minute. Over-limit views return the question
// without counting.
func (s *QuestionService) RecordView(ctx context.Context, viewerID, questionID string) (*domain.Question, error) {
	if !s.viewLimiter.Allow(viewerID + ":" + questionID) {
		q, err := s.store.GetQuestion(ctx, questionID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		return q, nil
	}

	var q *domain.Question
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		var err error
		q, err = s.store.IncrementQuestionViews(uow, questionID)
		if err != nil {
			return mapNotFound(err)
		}
		s.interactions.QueueAfterCommit(uow, viewerID, domain.ActionView, q.Target(), q.AuthorID)
		return nil
	})
	if err != nil {
		return nil, mapConflict(err)
	}
	return q, nil
}

// indexQuestion pushes the question into the search index, best-effort.
func (s *QuestionService) indexQuestion(q *domain.Question) {
	ctx := context.Background()
	tagNames := make([]string, 0, len(q.TagIDs))
	for _, tagID := range q.TagIDs {
		t, err := s.store.GetTag(ctx, tagID)
		if err != nil {
			continue
		}
		tagNames = append(tagNames, normalize.Fold(t.Name))
	}

	if err := s.search.IndexQuestion(search.FromQuestion(q, tagNames)); err != nil {
		s.logger.Warn("failed to index question", "question_id", q.ID, "error", err)
	}
}

// dedupeTagNames drops duplicate tag names under case folding, keeping
// first-seen order.
func dedupeTagNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		folded := normalize.Fold(normalize.TagName(name))
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, name)
	}
	return out
}

// QuestionChanged is emitted after any write that alters a question or its
// children, so caches keyed on question listings can invalidate.
type QuestionChanged struct {
	QuestionID string `json:"question_id"`
}

// mapNotFound converts store not-found sentinels to domain errors.
func mapNotFound(err error) error {
	switch {
	case errors.Is(err, store.ErrQuestionNotFound):
		return errors.NotFound("question not found")
	case errors.Is(err, store.ErrAnswerNotFound):
		return errors.NotFound("answer not found")
	case errors.Is(err, store.ErrTagNotFound):
		return errors.NotFound("tag not found")
	case errors.Is(err, store.ErrUserNotFound):
		return errors.NotFound("user not found")
	default:
		return err
	}
}

// mapConflict converts transaction conflicts to domain errors and leaves
// everything else untouched.
func mapConflict(err error) error {
	if errors.Is(err, store.ErrTxnConflict) {
		return errors.Conflict("concurrent modification, retry")
	}
	return err
}

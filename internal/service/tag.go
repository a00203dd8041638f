package service

import (
	"context"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// TagService exposes the tag catalog. Tags are created and bound only
// through question writes; this service is read-side.
type TagService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewTagService creates a new tag service.
func NewTagService(st *store.Store, log *logger.Logger) *TagService {
	return &TagService{store: st, logger: log}
}

// Get returns a tag by ID.
func (s *TagService) Get(ctx context.Context, tagID string) (*domain.Tag, error) {
	t, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}

// GetByName returns a tag by its case-folded name.
func (s *TagService) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	t, err := s.store.GetTagByName(ctx, name)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}

// List returns one page of tags.
func (s *TagService) List(ctx context.Context, params store.PageParams, sortBy store.TagSort) (store.Paged[*domain.Tag], error) {
	return s.store.ListTags(ctx, params, sortBy)
}

// Top returns the n tags with the most questions.
func (s *TagService) Top(ctx context.Context, n int) ([]*domain.Tag, error) {
	return s.store.TopTags(ctx, n)
}

// Questions returns one page of the questions carrying the tag.
func (s *TagService) Questions(ctx context.Context, tagID string, params store.PageParams, sortBy store.QuestionSort) (store.Paged[*domain.Question], error) {
	if _, err := s.store.GetTag(ctx, tagID); err != nil {
		return store.Paged[*domain.Question]{}, mapNotFound(err)
	}
	return s.store.ListQuestions(ctx, store.QuestionFilter{TagID: tagID, Sort: sortBy}, params)
}

package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
	"github.com/answerhubapp/answerhub-server/internal/search"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// reindexWorkers bounds the goroutines resolving tag names during a full
// reindex.
const reindexWorkers = 4

// SearchService runs full-text queries and rebuilds the index from the
// store, which is always the source of truth.
type SearchService struct {
	store  *store.Store
	index  *search.SearchIndex
	logger *logger.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(st *store.Store, index *search.SearchIndex, log *logger.Logger) *SearchService {
	return &SearchService{store: st, index: index, logger: log}
}

// Search runs a full-text query over questions.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

// ReindexAll wipes the index and re-feeds every question from the store.
// Tag name resolution fans out across a bounded worker pool; document
// order within the index does not matter.
func (s *SearchService) ReindexAll(ctx context.Context) (int, error) {
	if err := s.index.Rebuild(); err != nil {
		return 0, err
	}

	page := 1
	const pageSize = 100
	total := 0
	for {
		questions, err := s.store.ListQuestions(ctx, store.QuestionFilter{}, store.PageParams{Page: page, PageSize: pageSize})
		if err != nil {
			return total, err
		}
		if len(questions.Items) == 0 {
			break
		}

		docs := make([]*search.QuestionDocument, len(questions.Items))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reindexWorkers)
		for i, q := range questions.Items {
			g.Go(func() error {
				doc, err := s.buildDocument(gctx, q)
				if err != nil {
					return err
				}
				docs[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return total, err
		}

		if err := s.index.IndexQuestions(docs); err != nil {
			return total, err
		}
		total += len(docs)

		if !questions.HasNext {
			break
		}
		page++
	}

	s.logger.Info("search index rebuilt", "documents", total)
	return total, nil
}

// DocumentCount returns the number of indexed questions.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

func (s *SearchService) buildDocument(ctx context.Context, q *domain.Question) (*search.QuestionDocument, error) {
	tagNames := make([]string, 0, len(q.TagIDs))
	for _, tagID := range q.TagIDs {
		t, err := s.store.GetTag(ctx, tagID)
		if err != nil {
			continue
		}
		tagNames = append(tagNames, normalize.Fold(t.Name))
	}
	return search.FromQuestion(q, tagNames), nil
}

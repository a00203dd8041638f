package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/answerhubapp/answerhub-server/internal/normalize"
	"github.com/answerhubapp/answerhub-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchQuestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search questions",
		Description: "Full-text search over question titles and bodies",
		Tags:        []string{"Search"},
	}, s.handleSearchQuestions)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/reindex",
		Summary:     "Rebuild search index",
		Description: "Wipes and rebuilds the search index from the store",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReindexSearch)
}

// === DTOs ===

// SearchInput contains search query parameters.
type SearchInput struct {
	Query     string `query:"q" minLength:"1" doc:"Search query"`
	Tags      string `query:"tags" doc:"Comma-separated tag names to filter by"`
	Limit     int    `query:"limit" minimum:"1" maximum:"100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Result offset"`
	Sort      string `query:"sort" enum:"relevance,recent,popular" doc:"Ordering (default relevance)"`
	Highlight bool   `query:"highlight" doc:"Include match highlighting"`
}

// SearchHitResponse contains a single search result.
type SearchHitResponse struct {
	ID         string            `json:"id" doc:"Question ID"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Title      string            `json:"title" doc:"Question title"`
	Tags       []string          `json:"tags,omitempty" doc:"Tag names"`
	Upvotes    int               `json:"upvotes" doc:"Upvote count"`
	Views      int               `json:"views" doc:"View count"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Matched fragments per field"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string              `json:"query" doc:"The query that was run"`
	Total  uint64              `json:"total" doc:"Total matching documents"`
	TookMs int64               `json:"took_ms" doc:"Query duration in milliseconds"`
	Hits   []SearchHitResponse `json:"hits" doc:"Matching questions"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// ReindexResponse reports the result of a rebuild.
type ReindexResponse struct {
	Indexed int `json:"indexed" doc:"Number of questions indexed"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleSearchQuestions(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	params.Highlight = input.Highlight

	if input.Tags != "" {
		for _, tag := range strings.Split(input.Tags, ",") {
			if folded := normalize.Fold(strings.TrimSpace(tag)); folded != "" {
				params.Tags = append(params.Tags, folded)
			}
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			ID:         h.ID,
			Score:      h.Score,
			Title:      h.Title,
			Tags:       h.Tags,
			Upvotes:    h.Upvotes,
			Views:      h.Views,
			Highlights: h.Highlights,
		}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}

func (s *Server) handleReindexSearch(ctx context.Context, _ *struct{}) (*ReindexOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	indexed, err := s.services.Search.ReindexAll(ctx)
	if err != nil {
		return nil, err
	}

	return &ReindexOutput{Body: ReindexResponse{Indexed: indexed}}, nil
}

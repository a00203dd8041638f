package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns a page of tags",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTopTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/top",
		Summary:     "Top tags",
		Description: "Returns the tags with the most questions",
		Tags:        []string{"Tags"},
	}, s.handleGetTopTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTagQuestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}/questions",
		Summary:     "Tag questions",
		Description: "Returns a page of questions carrying the tag",
		Tags:        []string{"Tags"},
	}, s.handleGetTagQuestions)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID            string    `json:"id" doc:"Tag ID"`
	Name          string    `json:"name" doc:"Tag name"`
	QuestionCount int       `json:"question_count" doc:"Number of questions with this tag"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	PageQuery
	Sort string `query:"sort" enum:"popular,name,recent" doc:"Ordering (default popular)"`
}

// TagListResponse contains one page of tags.
type TagListResponse struct {
	Tags []TagResponse `json:"tags" doc:"Tags on this page"`
	Meta PageMeta      `json:"meta" doc:"Pagination metadata"`
}

// TagListOutput wraps the tag list response for Huma.
type TagListOutput struct {
	Body TagListResponse
}

// TopTagsInput contains parameters for the top tags listing.
type TopTagsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"50" doc:"How many tags to return (default 10)"`
}

// TopTagsResponse contains the most used tags.
type TopTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"Most used tags, busiest first"`
}

// TopTagsOutput wraps the top tags response for Huma.
type TopTagsOutput struct {
	Body TopTagsResponse
}

// GetTagInput contains parameters for getting a tag.
type GetTagInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// TagQuestionsInput contains parameters for listing a tag's questions.
type TagQuestionsInput struct {
	PageQuery
	ID   string `path:"id" doc:"Tag ID"`
	Sort string `query:"sort" enum:"newest,popular,unanswered" doc:"Ordering (default newest)"`
}

func toTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:            t.ID,
		Name:          t.Name,
		QuestionCount: t.QuestionCount,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*TagListOutput, error) {
	params := input.toPageParams()
	page, err := s.services.Tag.List(ctx, params, store.TagSort(input.Sort))
	if err != nil {
		return nil, err
	}

	tags := make([]TagResponse, len(page.Items))
	for i, t := range page.Items {
		tags[i] = toTagResponse(t)
	}

	return &TagListOutput{
		Body: TagListResponse{
			Tags: tags,
			Meta: pageMeta(params, page),
		},
	}, nil
}

func (s *Server) handleGetTopTags(ctx context.Context, input *TopTagsInput) (*TopTagsOutput, error) {
	limit := input.Limit
	if limit < 1 {
		limit = 10
	}

	top, err := s.services.Tag.Top(ctx, limit)
	if err != nil {
		return nil, err
	}

	tags := make([]TagResponse, len(top))
	for i, t := range top {
		tags[i] = toTagResponse(t)
	}

	return &TopTagsOutput{Body: TopTagsResponse{Tags: tags}}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	t, err := s.services.Tag.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(t)}, nil
}

func (s *Server) handleGetTagQuestions(ctx context.Context, input *TagQuestionsInput) (*QuestionListOutput, error) {
	params := input.toPageParams()
	page, err := s.services.Tag.Questions(ctx, input.ID, params, store.QuestionSort(input.Sort))
	if err != nil {
		return nil, err
	}

	return &QuestionListOutput{Body: s.toQuestionListResponse(ctx, params, page)}, nil
}

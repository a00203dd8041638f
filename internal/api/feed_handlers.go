package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/service"
)

func (s *Server) registerFeedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed/recommended",
		Summary:     "Recommended questions",
		Description: "Returns questions matching the caller's recent activity",
		Tags:        []string{"Feed"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecentActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed/activity",
		Summary:     "Recent activity",
		Description: "Returns the caller's most recent interactions, newest first",
		Tags:        []string{"Feed"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecentActivity)
}

// === DTOs ===

// RecommendationsInput contains parameters for the recommendation feed.
type RecommendationsInput struct {
	PageQuery
	Query string `query:"query" maxLength:"100" doc:"Case-insensitive substring filter on title or body"`
}

// RecommendationsResponse contains one page of recommended questions.
type RecommendationsResponse struct {
	Questions []QuestionResponse `json:"questions" doc:"Recommended questions, best match first"`
	Meta      PageMeta           `json:"meta" doc:"Pagination metadata"`
}

// RecommendationsOutput wraps the recommendations response for Huma.
type RecommendationsOutput struct {
	Body RecommendationsResponse
}

// ActivityInput contains parameters for the activity feed.
type ActivityInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" doc:"How many interactions to return (default 20)"`
}

// InteractionResponse contains one activity record.
type InteractionResponse struct {
	ID         string    `json:"id" doc:"Interaction ID"`
	Action     string    `json:"action" doc:"What happened: view, upvote, downvote, post, delete, or bookmark"`
	TargetKind string    `json:"target_kind" doc:"What it happened to"`
	TargetID   string    `json:"target_id" doc:"ID of the target"`
	CreatedAt  time.Time `json:"created_at" doc:"When it happened"`
}

// ActivityResponse contains recent interactions.
type ActivityResponse struct {
	Interactions []InteractionResponse `json:"interactions" doc:"Recent interactions, newest first"`
}

// ActivityOutput wraps the activity response for Huma.
type ActivityOutput struct {
	Body ActivityResponse
}

func toInteractionResponse(in *domain.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:         in.ID,
		Action:     string(in.Action),
		TargetKind: string(in.Target.Kind),
		TargetID:   in.Target.ID,
		CreatedAt:  in.CreatedAt,
	}
}

// === Handlers ===

func (s *Server) handleGetRecommendations(ctx context.Context, input *RecommendationsInput) (*RecommendationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := input.toPageParams()
	page, err := s.services.Recommend.ForUser(ctx, userID, service.RecommendParams{
		Query: input.Query,
		Page:  params,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]QuestionResponse, len(page.Items))
	for i, q := range page.Items {
		resp[i] = s.toQuestionResponse(ctx, q)
	}

	return &RecommendationsOutput{Body: RecommendationsResponse{
		Questions: resp,
		Meta:      pageMeta(params, page),
	}}, nil
}

func (s *Server) handleGetRecentActivity(ctx context.Context, input *ActivityInput) (*ActivityOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit < 1 {
		limit = 20
	}

	interactions, err := s.services.Interaction.Recent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	resp := make([]InteractionResponse, len(interactions))
	for i, in := range interactions {
		resp[i] = toInteractionResponse(in)
	}

	return &ActivityOutput{Body: ActivityResponse{Interactions: resp}}, nil
}

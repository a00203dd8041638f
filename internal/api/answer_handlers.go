package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/service"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

func (s *Server) registerAnswerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAnswers",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions/{id}/answers",
		Summary:     "List answers",
		Description: "Returns a page of answers under a question",
		Tags:        []string{"Answers"},
	}, s.handleListAnswers)

	huma.Register(s.api, huma.Operation{
		OperationID: "createAnswer",
		Method:      http.MethodPost,
		Path:        "/api/v1/questions/{id}/answers",
		Summary:     "Post answer",
		Description: "Posts an answer to a question",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateAnswer)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAnswer",
		Method:      http.MethodGet,
		Path:        "/api/v1/answers/{id}",
		Summary:     "Get answer",
		Description: "Returns an answer by ID",
		Tags:        []string{"Answers"},
	}, s.handleGetAnswer)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateAnswer",
		Method:      http.MethodPatch,
		Path:        "/api/v1/answers/{id}",
		Summary:     "Edit answer",
		Description: "Updates an answer's body",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateAnswer)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAnswer",
		Method:      http.MethodDelete,
		Path:        "/api/v1/answers/{id}",
		Summary:     "Delete answer",
		Description: "Deletes an answer and its votes",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteAnswer)
}

// === DTOs ===

// AnswerResponse contains answer data in API responses.
type AnswerResponse struct {
	ID         string    `json:"id" doc:"Answer ID"`
	QuestionID string    `json:"question_id" doc:"Parent question ID"`
	Body       string    `json:"body" doc:"Answer body"`
	AuthorID   string    `json:"author_id" doc:"Author user ID"`
	Upvotes    int       `json:"upvotes" doc:"Upvote count"`
	Downvotes  int       `json:"downvotes" doc:"Downvote count"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update time"`
}

// AnswerOutput wraps the answer response for Huma.
type AnswerOutput struct {
	Body AnswerResponse
}

// ListAnswersInput contains parameters for listing answers.
type ListAnswersInput struct {
	PageQuery
	ID   string `path:"id" doc:"Question ID"`
	Sort string `query:"sort" enum:"newest,popular" doc:"Ordering (default newest)"`
}

// AnswerListResponse contains one page of answers.
type AnswerListResponse struct {
	Answers []AnswerResponse `json:"answers" doc:"Answers on this page"`
	Meta    PageMeta         `json:"meta" doc:"Pagination metadata"`
}

// AnswerListOutput wraps the answer list response for Huma.
type AnswerListOutput struct {
	Body AnswerListResponse
}

// CreateAnswerInput wraps the create answer request for Huma.
type CreateAnswerInput struct {
	ID   string `path:"id" doc:"Question ID"`
	Body struct {
		Body string `json:"body" minLength:"10" doc:"Answer body"`
	}
}

// GetAnswerInput contains parameters for getting an answer.
type GetAnswerInput struct {
	ID string `path:"id" doc:"Answer ID"`
}

// UpdateAnswerInput wraps the update answer request for Huma.
type UpdateAnswerInput struct {
	ID   string `path:"id" doc:"Answer ID"`
	Body struct {
		Body string `json:"body" minLength:"10" doc:"Answer body"`
	}
}

// DeleteAnswerInput contains parameters for deleting an answer.
type DeleteAnswerInput struct {
	ID string `path:"id" doc:"Answer ID"`
}

func toAnswerResponse(a *domain.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Body:       a.Body,
		AuthorID:   a.AuthorID,
		Upvotes:    a.Upvotes,
		Downvotes:  a.Downvotes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListAnswers(ctx context.Context, input *ListAnswersInput) (*AnswerListOutput, error) {
	params := input.toPageParams()
	page, err := s.services.Answer.List(ctx, input.ID, params, store.AnswerSort(input.Sort))
	if err != nil {
		return nil, err
	}

	answers := make([]AnswerResponse, len(page.Items))
	for i, a := range page.Items {
		answers[i] = toAnswerResponse(a)
	}

	return &AnswerListOutput{
		Body: AnswerListResponse{
			Answers: answers,
			Meta:    pageMeta(params, page),
		},
	}, nil
}

func (s *Server) handleCreateAnswer(ctx context.Context, input *CreateAnswerInput) (*AnswerOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	a, err := s.services.Answer.Create(ctx, userID, input.ID, service.CreateAnswerRequest{
		Body: input.Body.Body,
	})
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{Body: toAnswerResponse(a)}, nil
}

func (s *Server) handleGetAnswer(ctx context.Context, input *GetAnswerInput) (*AnswerOutput, error) {
	a, err := s.services.Answer.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{Body: toAnswerResponse(a)}, nil
}

func (s *Server) handleUpdateAnswer(ctx context.Context, input *UpdateAnswerInput) (*AnswerOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	a, err := s.services.Answer.Update(ctx, userID, input.ID, service.UpdateAnswerRequest{
		Body: input.Body.Body,
	})
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{Body: toAnswerResponse(a)}, nil
}

func (s *Server) handleDeleteAnswer(ctx context.Context, input *DeleteAnswerInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Answer.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Answer deleted"}}, nil
}

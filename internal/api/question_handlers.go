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

func (s *Server) registerQuestionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listQuestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions",
		Summary:     "List questions",
		Description: "Returns a page of questions, filterable by tag and author",
		Tags:        []string{"Questions"},
	}, s.handleListQuestions)

	huma.Register(s.api, huma.Operation{
		OperationID: "createQuestion",
		Method:      http.MethodPost,
		Path:        "/api/v1/questions",
		Summary:     "Ask question",
		Description: "Creates a question with its tags",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "getQuestion",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions/{id}",
		Summary:     "Get question",
		Description: "Returns a question by ID, counting a view for authenticated readers",
		Tags:        []string{"Questions"},
	}, s.handleGetQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateQuestion",
		Method:      http.MethodPatch,
		Path:        "/api/v1/questions/{id}",
		Summary:     "Edit question",
		Description: "Updates title, body, and tag set",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteQuestion",
		Method:      http.MethodDelete,
		Path:        "/api/v1/questions/{id}",
		Summary:     "Delete question",
		Description: "Deletes a question and everything under it",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteQuestion)
}

// === DTOs ===

// QuestionResponse contains question data in API responses.
type QuestionResponse struct {
	ID          string        `json:"id" doc:"Question ID"`
	Title       string        `json:"title" doc:"Question title"`
	Body        string        `json:"body" doc:"Question body"`
	AuthorID    string        `json:"author_id" doc:"Author user ID"`
	Tags        []TagResponse `json:"tags" doc:"Attached tags"`
	Upvotes     int           `json:"upvotes" doc:"Upvote count"`
	Downvotes   int           `json:"downvotes" doc:"Downvote count"`
	Views       int           `json:"views" doc:"View count"`
	AnswerCount int           `json:"answer_count" doc:"Number of answers"`
	CreatedAt   time.Time     `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time     `json:"updated_at" doc:"Last update time"`
}

// QuestionOutput wraps the question response for Huma.
type QuestionOutput struct {
	Body QuestionResponse
}

// ListQuestionsInput contains parameters for listing questions.
type ListQuestionsInput struct {
	PageQuery
	Tag    string `query:"tag" doc:"Filter by tag ID"`
	Author string `query:"author" doc:"Filter by author user ID"`
	Query  string `query:"query" maxLength:"100" doc:"Case-insensitive substring filter on title or body"`
	Sort   string `query:"sort" enum:"newest,popular,unanswered" doc:"Ordering (default newest)"`
}

// QuestionListResponse contains one page of questions.
type QuestionListResponse struct {
	Questions []QuestionResponse `json:"questions" doc:"Questions on this page"`
	Meta      PageMeta           `json:"meta" doc:"Pagination metadata"`
}

// QuestionListOutput wraps the question list response for Huma.
type QuestionListOutput struct {
	Body QuestionListResponse
}

// CreateQuestionInput wraps the create question request for Huma.
type CreateQuestionInput struct {
	Body struct {
		Title string   `json:"title" minLength:"5" maxLength:"130" doc:"Question title"`
		Body  string   `json:"body" minLength:"20" doc:"Question body"`
		Tags  []string `json:"tags" minItems:"1" maxItems:"3" doc:"Tag names (1-3)"`
	}
}

// GetQuestionInput contains parameters for getting a question.
type GetQuestionInput struct {
	ID string `path:"id" doc:"Question ID"`
}

// UpdateQuestionInput wraps the update question request for Huma.
type UpdateQuestionInput struct {
	ID   string `path:"id" doc:"Question ID"`
	Body struct {
		Title string   `json:"title" minLength:"5" maxLength:"130" doc:"Question title"`
		Body  string   `json:"body" minLength:"20" doc:"Question body"`
		Tags  []string `json:"tags" minItems:"1" maxItems:"3" doc:"Tag names (1-3)"`
	}
}

// DeleteQuestionInput contains parameters for deleting a question.
type DeleteQuestionInput struct {
	ID string `path:"id" doc:"Question ID"`
}

// toQuestionResponse builds the response DTO, resolving tags.
func (s *Server) toQuestionResponse(ctx context.Context, q *domain.Question) QuestionResponse {
	tags := make([]TagResponse, 0, len(q.TagIDs))
	if resolved, err := s.services.Question.Tags(ctx, q); err == nil {
		for _, t := range resolved {
			tags = append(tags, toTagResponse(t))
		}
	}

	return QuestionResponse{
		ID:          q.ID,
		Title:       q.Title,
		Body:        q.Body,
		AuthorID:    q.AuthorID,
		Tags:        tags,
		Upvotes:     q.Upvotes,
		Downvotes:   q.Downvotes,
		Views:       q.Views,
		AnswerCount: q.AnswerCount,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (s *Server) toQuestionListResponse(ctx context.Context, params store.PageParams, page store.Paged[*domain.Question]) QuestionListResponse {
	questions := make([]QuestionResponse, len(page.Items))
	for i, q := range page.Items {
		questions[i] = s.toQuestionResponse(ctx, q)
	}
	return QuestionListResponse{
		Questions: questions,
		Meta:      pageMeta(params, page),
	}
}

// === Handlers ===

func (s *Server) handleListQuestions(ctx context.Context, input *ListQuestionsInput) (*QuestionListOutput, error) {
	params := input.toPageParams()
	filter := store.QuestionFilter{
		TagID:    input.Tag,
		AuthorID: input.Author,
		Query:    input.Query,
		Sort:     store.QuestionSort(input.Sort),
	}

	page, err := s.services.Question.List(ctx, filter, params)
	if err != nil {
		return nil, err
	}

	return &QuestionListOutput{Body: s.toQuestionListResponse(ctx, params, page)}, nil
}

func (s *Server) handleCreateQuestion(ctx context.Context, input *CreateQuestionInput) (*QuestionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	q, err := s.services.Question.Create(ctx, userID, service.CreateQuestionRequest{
		Title: input.Body.Title,
		Body:  input.Body.Body,
		Tags:  input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &QuestionOutput{Body: s.toQuestionResponse(ctx, q)}, nil
}

func (s *Server) handleGetQuestion(ctx context.Context, input *GetQuestionInput) (*QuestionOutput, error) {
	// Views count only for authenticated readers, so anonymous crawls
	// don't inflate counters.
	if userID, err := GetUserID(ctx); err == nil {
		q, err := s.services.Question.RecordView(ctx, userID, input.ID)
		if err != nil {
			return nil, err
		}
		return &QuestionOutput{Body: s.toQuestionResponse(ctx, q)}, nil
	}

	q, err := s.services.Question.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &QuestionOutput{Body: s.toQuestionResponse(ctx, q)}, nil
}

func (s *Server) handleUpdateQuestion(ctx context.Context, input *UpdateQuestionInput) (*QuestionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	q, err := s.services.Question.Update(ctx, userID, input.ID, service.UpdateQuestionRequest{
		Title: input.Body.Title,
		Body:  input.Body.Body,
		Tags:  input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &QuestionOutput{Body: s.toQuestionResponse(ctx, q)}, nil
}

func (s *Server) handleDeleteQuestion(ctx context.Context, input *DeleteQuestionInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Question.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Question deleted"}}, nil
}

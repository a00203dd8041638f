package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggleBookmark",
		Method:      http.MethodPost,
		Path:        "/api/v1/questions/{id}/bookmark",
		Summary:     "Toggle bookmark",
		Description: "Saves the question to the caller's collection, or removes it if already saved",
		Tags:        []string{"Collection"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookmarks",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection",
		Summary:     "List saved questions",
		Description: "Returns a page of the caller's saved questions, most recently saved first",
		Tags:        []string{"Collection"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookmarks)
}

// === DTOs ===

// ToggleBookmarkInput contains parameters for toggling a bookmark.
type ToggleBookmarkInput struct {
	ID string `path:"id" doc:"Question ID"`
}

// BookmarkResponse contains the outcome of a bookmark toggle.
type BookmarkResponse struct {
	Status     string `json:"status" doc:"Outcome: saved or removed"`
	QuestionID string `json:"question_id" doc:"Question ID"`
}

// BookmarkOutput wraps the bookmark response for Huma.
type BookmarkOutput struct {
	Body BookmarkResponse
}

// ListBookmarksInput contains parameters for listing saved questions.
type ListBookmarksInput struct {
	PageQuery
}

// === Handlers ===

func (s *Server) handleToggleBookmark(ctx context.Context, input *ToggleBookmarkInput) (*BookmarkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.Collection.Toggle(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookmarkOutput{
		Body: BookmarkResponse{
			Status:     string(status),
			QuestionID: input.ID,
		},
	}, nil
}

func (s *Server) handleListBookmarks(ctx context.Context, input *ListBookmarksInput) (*QuestionListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := input.toPageParams()
	page, err := s.services.Collection.List(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	return &QuestionListOutput{Body: s.toQuestionListResponse(ctx, params, page)}, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

func (s *Server) registerVoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggleVote",
		Method:      http.MethodPost,
		Path:        "/api/v1/votes",
		Summary:     "Toggle vote",
		Description: "Applies one press of the vote button: adds, removes, or flips",
		Tags:        []string{"Votes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleVote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getVoteStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/votes/{kind}/{id}",
		Summary:     "Vote status",
		Description: "Returns the caller's current vote on the target, if any",
		Tags:        []string{"Votes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetVoteStatus)
}

// === DTOs ===

// ToggleVoteRequest is the request body for toggling a vote.
type ToggleVoteRequest struct {
	TargetKind string `json:"target_kind" enum:"question,answer" doc:"What is being voted on"`
	TargetID   string `json:"target_id" minLength:"1" doc:"ID of the target"`
	Kind       string `json:"kind" enum:"upvote,downvote" doc:"Vote direction"`
}

// ToggleVoteInput wraps the toggle vote request for Huma.
type ToggleVoteInput struct {
	Body ToggleVoteRequest
}

// VoteResultResponse contains the outcome of a toggle.
type VoteResultResponse struct {
	Status     string `json:"status" doc:"Outcome: added, removed, or flipped"`
	Kind       string `json:"kind" doc:"Vote direction"`
	TargetKind string `json:"target_kind" doc:"What was voted on"`
	TargetID   string `json:"target_id" doc:"ID of the target"`
}

// VoteResultOutput wraps the vote result response for Huma.
type VoteResultOutput struct {
	Body VoteResultResponse
}

// VoteStatusInput contains parameters for checking a vote.
type VoteStatusInput struct {
	Kind string `path:"kind" enum:"question,answer" doc:"Target kind"`
	ID   string `path:"id" doc:"Target ID"`
}

// VoteStatusResponse contains the caller's vote on a target.
type VoteStatusResponse struct {
	Voted bool   `json:"voted" doc:"Whether a vote exists"`
	Kind  string `json:"kind,omitempty" doc:"Vote direction when voted"`
}

// VoteStatusOutput wraps the vote status response for Huma.
type VoteStatusOutput struct {
	Body VoteStatusResponse
}

// === Handlers ===

func (s *Server) handleToggleVote(ctx context.Context, input *ToggleVoteInput) (*VoteResultOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	target := domain.Target{
		Kind: domain.TargetKind(input.Body.TargetKind),
		ID:   input.Body.TargetID,
	}
	result, err := s.services.Vote.Toggle(ctx, userID, target, domain.VoteKind(input.Body.Kind))
	if err != nil {
		return nil, err
	}

	return &VoteResultOutput{
		Body: VoteResultResponse{
			Status:     string(result.Status),
			Kind:       string(result.Kind),
			TargetKind: string(result.Target.Kind),
			TargetID:   result.Target.ID,
		},
	}, nil
}

func (s *Server) handleGetVoteStatus(ctx context.Context, input *VoteStatusInput) (*VoteStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	target := domain.Target{
		Kind: domain.TargetKind(input.Kind),
		ID:   input.ID,
	}
	v, err := s.services.Vote.Status(ctx, userID, target)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return &VoteStatusOutput{Body: VoteStatusResponse{Voted: false}}, nil
	}
	return &VoteStatusOutput{Body: VoteStatusResponse{Voted: true, Kind: string(v.Kind)}}, nil
}

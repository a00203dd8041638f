package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/answerhubapp/answerhub-server/internal/service"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns a page of users, reputation leaders first by default",
		Tags:        []string{"Users"},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get profile",
		Description: "Returns a user with their contribution count",
		Tags:        []string{"Users"},
	}, s.handleGetUserProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserQuestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/questions",
		Summary:     "User questions",
		Description: "Returns a page of the user's questions, newest first",
		Tags:        []string{"Users"},
	}, s.handleGetUserQuestions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserTopTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/top-tags",
		Summary:     "User top tags",
		Description: "Returns the tags the user asks about most, busiest first",
		Tags:        []string{"Users"},
	}, s.handleGetUserTopTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Edit profile",
		Description: "Updates the caller's display name and bio",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)
}

// === DTOs ===

// ListUsersInput contains parameters for listing users.
type ListUsersInput struct {
	PageQuery
	Sort string `query:"sort" enum:"reputation,newest" doc:"Ordering (default reputation)"`
}

// UserListResponse contains one page of users.
type UserListResponse struct {
	Users []UserResponse `json:"users" doc:"Users on this page"`
	Meta  PageMeta       `json:"meta" doc:"Pagination metadata"`
}

// UserListOutput wraps the user list response for Huma.
type UserListOutput struct {
	Body UserListResponse
}

// GetUserProfileInput contains parameters for getting a profile.
type GetUserProfileInput struct {
	ID string `path:"id" doc:"User ID"`
}

// ProfileResponse contains a user with contribution stats.
type ProfileResponse struct {
	User          UserResponse  `json:"user" doc:"User data"`
	QuestionCount int           `json:"question_count" doc:"Questions asked"`
	AnswerCount   int           `json:"answer_count" doc:"Answers written"`
	Badges        BadgeResponse `json:"badges" doc:"Badges earned per tier"`
}

// BadgeResponse contains badge counts per tier.
type BadgeResponse struct {
	Gold   int `json:"gold" doc:"Gold badges"`
	Silver int `json:"silver" doc:"Silver badges"`
	Bronze int `json:"bronze" doc:"Bronze badges"`
}

// UserTopTagsInput contains parameters for a user's top tags.
type UserTopTagsInput struct {
	ID    string `path:"id" doc:"User ID"`
	Limit int    `query:"limit" minimum:"1" maximum:"50" doc:"How many tags to return (default 5)"`
}

// TagCountResponse pairs a tag with the user's question count for it.
type TagCountResponse struct {
	Tag   TagResponse `json:"tag" doc:"The tag"`
	Count int         `json:"count" doc:"How many of the user's questions carry it"`
}

// UserTopTagsResponse contains a user's most used tags.
type UserTopTagsResponse struct {
	Tags []TagCountResponse `json:"tags" doc:"Most used tags, busiest first"`
}

// UserTopTagsOutput wraps the top tags response for Huma.
type UserTopTagsOutput struct {
	Body UserTopTagsResponse
}

// ProfileOutput wraps the profile response for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

// UserQuestionsInput contains parameters for listing a user's questions.
type UserQuestionsInput struct {
	PageQuery
	ID string `path:"id" doc:"User ID"`
}

// UpdateProfileInput wraps the update profile request for Huma.
type UpdateProfileInput struct {
	Body struct {
		Name string `json:"name" minLength:"2" maxLength:"60" doc:"Display name"`
		Bio  string `json:"bio" maxLength:"500" doc:"Profile bio"`
	}
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, input *ListUsersInput) (*UserListOutput, error) {
	params := input.toPageParams()
	sortBy := store.UserSort(input.Sort)
	if sortBy == "" {
		sortBy = store.UserSortReputation
	}

	page, err := s.services.User.List(ctx, params, sortBy)
	if err != nil {
		return nil, err
	}

	users := make([]UserResponse, len(page.Items))
	for i, u := range page.Items {
		users[i] = toUserResponse(u)
	}

	return &UserListOutput{
		Body: UserListResponse{
			Users: users,
			Meta:  pageMeta(params, page),
		},
	}, nil
}

func (s *Server) handleGetUserProfile(ctx context.Context, input *GetUserProfileInput) (*ProfileOutput, error) {
	profile, err := s.services.User.GetProfile(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{
		Body: ProfileResponse{
			User:          toUserResponse(profile.User),
			QuestionCount: profile.QuestionCount,
			AnswerCount:   profile.AnswerCount,
			Badges: BadgeResponse{
				Gold:   profile.Badges.Gold,
				Silver: profile.Badges.Silver,
				Bronze: profile.Badges.Bronze,
			},
		},
	}, nil
}

func (s *Server) handleGetUserTopTags(ctx context.Context, input *UserTopTagsInput) (*UserTopTagsOutput, error) {
	limit := input.Limit
	if limit < 1 {
		limit = 5
	}

	top, err := s.services.User.TopTags(ctx, input.ID, limit)
	if err != nil {
		return nil, err
	}

	tags := make([]TagCountResponse, len(top))
	for i, tc := range top {
		tags[i] = TagCountResponse{Tag: toTagResponse(tc.Tag), Count: tc.Count}
	}

	return &UserTopTagsOutput{Body: UserTopTagsResponse{Tags: tags}}, nil
}

func (s *Server) handleGetUserQuestions(ctx context.Context, input *UserQuestionsInput) (*QuestionListOutput, error) {
	params := input.toPageParams()
	page, err := s.services.User.Questions(ctx, input.ID, params)
	if err != nil {
		return nil, err
	}

	return &QuestionListOutput{Body: s.toQuestionListResponse(ctx, params, page)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.services.User.UpdateProfile(ctx, userID, service.UpdateProfileRequest{
		Name: input.Body.Name,
		Bio:  input.Body.Bio,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(u)}, nil
}

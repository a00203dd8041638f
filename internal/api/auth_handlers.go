package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register",
		Description: "Creates an account and returns an access token",
		Tags:        []string{"Auth"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Login",
		Description: "Verifies credentials and returns an access token",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the authenticated user",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" minLength:"2" maxLength:"60" doc:"Display name"`
	Email    string `json:"email" format:"email" doc:"Email address"`
	Password string `json:"password" minLength:"8" maxLength:"128" doc:"Password"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for authenticating.
type LoginRequest struct {
	Email    string `json:"email" format:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// UserResponse contains public user data in API responses.
type UserResponse struct {
	ID         string    `json:"id" doc:"User ID"`
	Name       string    `json:"name" doc:"Display name"`
	Bio        string    `json:"bio,omitempty" doc:"Profile bio"`
	Reputation int       `json:"reputation" doc:"Reputation score"`
	CreatedAt  time.Time `json:"created_at" doc:"Registration time"`
}

// SessionResponse contains an authenticated session.
type SessionResponse struct {
	User        UserResponse `json:"user" doc:"Authenticated user"`
	AccessToken string       `json:"access_token" doc:"PASETO access token"`
	ExpiresAt   time.Time    `json:"expires_at" doc:"Token expiry time"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Bio:        u.Bio,
		Reputation: u.Reputation,
		CreatedAt:  u.CreatedAt,
	}
}

func toSessionResponse(sess *service.Session) SessionResponse {
	return SessionResponse{
		User:        toUserResponse(sess.User),
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.ExpiresAt,
	}
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*SessionOutput, error) {
	sess, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: toSessionResponse(sess)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	sess, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: toSessionResponse(sess)}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.services.User.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(u)}, nil
}

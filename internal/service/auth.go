package service

import (
	"context"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/auth"
	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
	"github.com/answerhubapp/answerhub-server/internal/id"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
	"github.com/answerhubapp/answerhub-server/internal/ratelimit"
	"github.com/answerhubapp/answerhub-server/internal/store"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// AuthService handles registration and login. Passwords are hashed with
// Argon2id; sessions are stateless PASETO access tokens.
type AuthService struct {
	store        *store.Store
	tokens       *auth.TokenService
	validator    *validation.Validator
	loginLimiter *ratelimit.KeyedRateLimiter
	logger       *logger.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(st *store.Store, tokens *auth.TokenService, v *validation.Validator, log *logger.Logger) *AuthService {
	return &AuthService{
		store:     st,
		tokens:    tokens,
		validator: v,
		// Five login attempts per email per minute.
		loginLimiter: ratelimit.New(5.0/60.0, 5),
		logger:       log,
	}
}

// Close releases service resources.
func (s *AuthService) Close() {
	s.loginLimiter.Stop()
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the payload for authenticating.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an authenticated user plus their access token.
type Session struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Register creates an account and returns a fresh session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "hash password")
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate user ID")
	}

	now := time.Now()
	u := &domain.User{
		ID:           userID,
		Name:         req.Name,
		Email:        normalize.Email(req.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		return s.store.CreateUser(uow, u)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, errors.AlreadyExists("an account with this email already exists")
		}
		return nil, mapConflict(err)
	}

	s.logger.Info("user registered", "user_id", userID)
	return s.newSession(u)
}

// Login verifies credentials and returns a fresh session. Failed and
// succeeded attempts both count against the per-email rate limit.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := normalize.Email(req.Email)
	if !s.loginLimiter.Allow(email) {
		return nil, errors.Conflict("too many login attempts, try again later")
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, errors.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, req.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "verify password")
	}
	if !ok {
		s.logger.Warn("failed login attempt", "user_id", u.ID)
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return s.newSession(u)
}

// Verify validates an access token and returns its claims.
func (s *AuthService) Verify(tokenString string) (*auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, errors.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) newSession(u *domain.User) (*Session, error) {
	token, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate access token")
	}
	return &Session{
		User:        u,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.tokens.AccessTokenDuration()),
	}, nil
}

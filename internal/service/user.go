package service

import (
	"context"
	"sort"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
	"github.com/answerhubapp/answerhub-server/internal/store"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// UserService exposes user profiles and the reputation leaderboard.
type UserService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *logger.Logger
}

// NewUserService creates a new user service.
func NewUserService(st *store.Store, v *validation.Validator, log *logger.Logger) *UserService {
	return &UserService{store: st, validator: v, logger: log}
}

// UpdateProfileRequest is the payload for editing one's own profile.
// Email is immutable once registered.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=60"`
	Bio  string `json:"bio" validate:"max=500"`
}

// Profile is a user plus their contribution counts and earned badges.
type Profile struct {
	User          *domain.User `json:"user"`
	QuestionCount int          `json:"question_count"`
	AnswerCount   int          `json:"answer_count"`
	Badges        BadgeSummary `json:"badges"`
}

// BadgeSummary counts the badges a user has earned per tier.
type BadgeSummary struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
}

// badgeSummary derives badges from contribution counts and reputation.
// Each milestone earns one badge: bronze for the first question, first
// answer, and 10 reputation; silver at 10/10/100; gold at 50/50/1000.
func badgeSummary(questions, answers, reputation int) BadgeSummary {
	var b BadgeSummary
	if questions >= 1 {
		b.Bronze++
	}
	if answers >= 1 {
		b.Bronze++
	}
	if reputation >= 10 {
		b.Bronze++
	}
	if questions >= 10 {
		b.Silver++
	}
	if answers >= 10 {
		b.Silver++
	}
	if reputation >= 100 {
		b.Silver++
	}
	if questions >= 50 {
		b.Gold++
	}
	if answers >= 50 {
		b.Gold++
	}
	if reputation >= 1000 {
		b.Gold++
	}
	return b
}

// TagCount pairs a tag with how many of a user's questions carry it.
type TagCount struct {
	Tag   *domain.Tag `json:"tag"`
	Count int         `json:"count"`
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return u, nil
}

// GetProfile returns a user with their contribution counts.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	questions, err := s.store.ListQuestions(ctx, store.QuestionFilter{AuthorID: userID}, store.PageParams{Page: 1, PageSize: 1})
	if err != nil {
		return nil, err
	}

	answers, err := s.store.CountAnswersByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:          u,
		QuestionCount: questions.Total,
		AnswerCount:   answers,
		Badges:        badgeSummary(questions.Total, answers, u.Reputation),
	}, nil
}

// TopTags returns the tags the user asks about most, busiest first. Ties
// break on folded name so the order is stable.
func (s *UserService) TopTags(ctx context.Context, userID string, limit int) ([]TagCount, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, mapNotFound(err)
	}

	counts, err := s.store.TagCountsByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}

	top := make([]TagCount, 0, len(counts))
	for tagID, count := range counts {
		t, err := s.store.GetTag(ctx, tagID)
		if err != nil {
			if errors.Is(err, store.ErrTagNotFound) {
				continue
			}
			return nil, err
		}
		top = append(top, TagCount{Tag: t, Count: count})
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return normalize.Fold(top[i].Tag.Name) < normalize.Fold(top[j].Tag.Name)
	})

	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// UpdateProfile edits the user's own display name and bio.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var u *domain.User
	err := s.store.RunInTxn(ctx, func(uow *store.UnitOfWork) error {
		var err error
		u, err = s.store.GetUserTxn(uow, userID)
		if err != nil {
			return mapNotFound(err)
		}
		u.Name = req.Name
		u.Bio = req.Bio
		u.Touch()
		return s.store.UpdateUser(uow, u)
	})
	if err != nil {
		return nil, mapConflict(err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return u, nil
}

// List returns one page of users, reputation leaders first by default.
func (s *UserService) List(ctx context.Context, params store.PageParams, sortBy store.UserSort) (store.Paged[*domain.User], error) {
	return s.store.ListUsers(ctx, params, sortBy)
}

// Questions returns one page of the user's questions, newest first.
func (s *UserService) Questions(ctx context.Context, userID string, params store.PageParams) (store.Paged[*domain.Question], error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return store.Paged[*domain.Question]{}, mapNotFound(err)
	}
	return s.store.ListQuestions(ctx, store.QuestionFilter{AuthorID: userID}, params)
}

package service

import (
	"context"
	"sort"
	"strings"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/normalize"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// recommendHistorySize bounds how much of the user's recent activity feeds
// the tag profile.
const recommendHistorySize = 50

// RecommendParams narrows and paginates a recommendation request.
type RecommendParams struct {
	Query string           // Optional case-insensitive substring over title or body
	Page  store.PageParams // Pagination
}

// RecommendService suggests questions from a user's recent activity. The
// tag profile is computed on demand from the interaction ledger; nothing
// is precomputed or cached, so a fresh vote shifts the next request.
type RecommendService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewRecommendService creates a new recommendation service.
func NewRecommendService(st *store.Store, log *logger.Logger) *RecommendService {
	return &RecommendService{store: st, logger: log}
}

// ForUser returns one page of recommended questions: candidates share at
// least one tag with the user's recent activity, minus anything the user
// wrote or already interacted with, ranked by upvotes, then views, then ID
// descending. A user with no qualifying history gets an empty page, not an
// error.
func (s *RecommendService) ForUser(ctx context.Context, userID string, params RecommendParams) (store.Paged[*domain.Question], error) {
	empty := store.Paged[*domain.Question]{Items: []*domain.Question{}}

	recent, err := s.store.RecentInteractions(ctx, userID, recommendHistorySize)
	if err != nil {
		return empty, err
	}

	seen, profileTags, err := s.buildProfile(ctx, recent)
	if err != nil {
		return empty, err
	}
	if len(profileTags) == 0 {
		return empty, nil
	}

	candidateIDs, err := s.candidatesForTags(ctx, profileTags, seen)
	if err != nil {
		return empty, err
	}

	questions, err := s.store.GetQuestionsByIDs(ctx, candidateIDs)
	if err != nil {
		return empty, err
	}

	folded := normalize.Fold(strings.TrimSpace(params.Query))
	matched := make([]*domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.AuthorID == userID {
			continue
		}
		if !sharesTag(q, profileTags) {
			continue
		}
		if folded != "" &&
			!strings.Contains(normalize.Fold(q.Title), folded) &&
			!strings.Contains(normalize.Fold(q.Body), folded) {
			continue
		}
		matched = append(matched, q)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Upvotes != matched[j].Upvotes {
			return matched[i].Upvotes > matched[j].Upvotes
		}
		if matched[i].Views != matched[j].Views {
			return matched[i].Views > matched[j].Views
		}
		return matched[i].ID > matched[j].ID
	})

	page := store.PageSlice(matched, params.Page)

	s.logger.Debug("recommendations computed",
		"user_id", userID,
		"history", len(recent),
		"profile_tags", len(profileTags),
		"results", len(page.Items),
	)
	return page, nil
}

// buildProfile walks recent interactions and collects the tags of the
// questions the user engaged with. Every touched question goes into the
// seen set regardless of whether it still exists.
func (s *RecommendService) buildProfile(ctx context.Context, recent []*domain.Interaction) (map[string]bool, map[string]bool, error) {
	seen := make(map[string]bool)
	profileTags := make(map[string]bool)

	for _, in := range recent {
		if in.Target.Kind != domain.TargetQuestion {
			continue
		}
		switch in.Action {
		case domain.ActionView, domain.ActionUpvote, domain.ActionDownvote, domain.ActionPost, domain.ActionBookmark:
		default:
			continue
		}

		questionID := in.Target.ID
		alreadySeen := seen[questionID]
		seen[questionID] = true

		// Downvotes mark the question seen but contribute no tags.
		if in.Action == domain.ActionDownvote || alreadySeen {
			continue
		}

		q, err := s.store.GetQuestion(ctx, questionID)
		if err != nil {
			if errors.Is(err, store.ErrQuestionNotFound) {
				continue
			}
			return nil, nil, err
		}
		for _, tagID := range q.TagIDs {
			profileTags[tagID] = true
		}
	}
	return seen, profileTags, nil
}

// candidatesForTags unions the question IDs attached to every profile tag,
// excluding seen questions.
func (s *RecommendService) candidatesForTags(ctx context.Context, profileTags map[string]bool, seen map[string]bool) ([]string, error) {
	candidateSet := make(map[string]bool)
	for tagID := range profileTags {
		ids, err := s.store.QuestionIDsForTag(ctx, tagID)
		if err != nil {
			return nil, err
		}
		for _, qid := range ids {
			if !seen[qid] {
				candidateSet[qid] = true
			}
		}
	}

	candidates := make([]string, 0, len(candidateSet))
	for qid := range candidateSet {
		candidates = append(candidates, qid)
	}
	sort.Strings(candidates)
	return candidates, nil
}

// sharesTag reports whether the question carries at least one profile tag.
// Candidates come off the tag index, but the question may have been edited
// between the index scan and the load.
func sharesTag(q *domain.Question, profileTags map[string]bool) bool {
	for _, tagID := range q.TagIDs {
		if profileTags[tagID] {
			return true
		}
	}
	return false
}

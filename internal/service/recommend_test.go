package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/store"
)

func questionIDs(questions []*domain.Question) []string {
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// setQuestionStats overwrites a question's counters for ranking fixtures.
func (e *testEnv) setQuestionStats(t *testing.T, questionID string, upvotes, views int) {
	t.Helper()

	err := e.store.RunInTxn(context.Background(), func(uow *store.UnitOfWork) error {
		q, err := e.store.GetQuestionTxn(uow, questionID)
		if err != nil {
			return err
		}
		q.Upvotes = upvotes
		q.Views = views
		return e.store.PutQuestion(uow, q)
	})
	require.NoError(t, err)
}

func recommendPage(t *testing.T, env *testEnv, userID string, params RecommendParams) store.Paged[*domain.Question] {
	t.Helper()

	page, err := env.recommend.ForUser(context.Background(), userID, params)
	require.NoError(t, err)
	return page
}

func TestRecommend_ExcludesOwnAndSeen(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")

	viewed := env.createQuestion(t, "user_2", "go")
	fresh := env.createQuestion(t, "user_2", "go")
	own := env.createQuestion(t, "user_1", "go")

	env.recordInteraction(t, "user_1", domain.ActionView, viewed.ID, time.Now())

	page := recommendPage(t, env, "user_1", RecommendParams{})

	ids := questionIDs(page.Items)
	assert.Contains(t, ids, fresh.ID)
	assert.NotContains(t, ids, viewed.ID, "already-seen question recommended")
	assert.NotContains(t, ids, own.ID, "user's own question recommended")
}

func TestRecommend_RanksByUpvotesThenViews(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")

	seen := env.createQuestion(t, "user_2", "go")
	midCandidate := env.createQuestion(t, "user_2", "go")
	topCandidate := env.createQuestion(t, "user_2", "go")
	lowCandidate := env.createQuestion(t, "user_2", "go")

	env.setQuestionStats(t, topCandidate.ID, 9, 0)
	env.setQuestionStats(t, midCandidate.ID, 4, 7)
	env.setQuestionStats(t, lowCandidate.ID, 4, 2)

	env.recordInteraction(t, "user_1", domain.ActionView, seen.ID, time.Now())

	page := recommendPage(t, env, "user_1", RecommendParams{})
	require.Len(t, page.Items, 3)

	// Upvotes first; equal upvotes break on views.
	assert.Equal(t, []string{topCandidate.ID, midCandidate.ID, lowCandidate.ID}, questionIDs(page.Items))
}

func TestRecommend_RequiresSharedTag(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")

	seen := env.createQuestion(t, "user_2", "go")
	goCandidate := env.createQuestion(t, "user_2", "go")
	rustCandidate := env.createQuestion(t, "user_2", "rust")

	env.recordInteraction(t, "user_1", domain.ActionView, seen.ID, time.Now())

	page := recommendPage(t, env, "user_1", RecommendParams{})

	ids := questionIDs(page.Items)
	assert.Contains(t, ids, goCandidate.ID)
	assert.NotContains(t, ids, rustCandidate.ID, "candidate without a shared tag recommended")
}

func TestRecommend_DownvoteMarksSeenWithoutAffinity(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")

	liked := env.createQuestion(t, "user_2", "go")
	disliked := env.createQuestion(t, "user_2", "databases")
	goCandidate := env.createQuestion(t, "user_2", "go")
	dbCandidate := env.createQuestion(t, "user_2", "databases")

	base := time.Now()
	env.recordInteraction(t, "user_1", domain.ActionUpvote, liked.ID, base.Add(-2*time.Minute))
	env.recordInteraction(t, "user_1", domain.ActionDownvote, disliked.ID, base.Add(-1*time.Minute))

	page := recommendPage(t, env, "user_1", RecommendParams{})

	ids := questionIDs(page.Items)
	assert.Contains(t, ids, goCandidate.ID)
	assert.NotContains(t, ids, disliked.ID, "downvoted question recommended")
	// The databases tag never entered the profile, so its candidate is out.
	assert.NotContains(t, ids, dbCandidate.ID)
}

func TestRecommend_EmptyHistoryEmptyResult(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")

	env.createQuestion(t, "user_2", "go")

	// No interactions at all: empty page, no error, no popularity fill-in.
	page := recommendPage(t, env, "user_1", RecommendParams{})
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasNext)
}

func TestRecommend_QueryFilter(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")

	seen := env.createQuestion(t, "user_2", "go")
	match := env.createQuestionTitled(t, "user_2", "Deadlock in the scheduler", "go")
	miss := env.createQuestionTitled(t, "user_2", "Unrelated subject entirely", "go")

	env.recordInteraction(t, "user_1", domain.ActionView, seen.ID, time.Now())

	page := recommendPage(t, env, "user_1", RecommendParams{Query: "DEADLOCK"})

	ids := questionIDs(page.Items)
	assert.Contains(t, ids, match.ID)
	assert.NotContains(t, ids, miss.ID)
}

func TestRecommend_Pagination(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")

	seen := env.createQuestion(t, "user_2", "go")
	for i := 0; i < 5; i++ {
		env.createQuestion(t, "user_2", "go")
	}
	env.recordInteraction(t, "user_1", domain.ActionView, seen.ID, time.Now())

	first := recommendPage(t, env, "user_1", RecommendParams{Page: store.PageParams{Page: 1, PageSize: 2}})
	second := recommendPage(t, env, "user_1", RecommendParams{Page: store.PageParams{Page: 2, PageSize: 2}})

	require.Len(t, first.Items, 2)
	require.Len(t, second.Items, 2)
	assert.Equal(t, 5, first.Total)
	assert.True(t, first.HasNext)

	// Pages never overlap.
	for _, q := range second.Items {
		assert.NotContains(t, questionIDs(first.Items), q.ID)
	}
}

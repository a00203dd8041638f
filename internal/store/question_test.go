package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

func setUpvotes(t *testing.T, s *Store, questionID string, upvotes int) {
	t.Helper()

	err := s.RunInTxn(context.Background(), func(uow *UnitOfWork) error {
		q, err := s.GetQuestionTxn(uow, questionID)
		if err != nil {
			return err
		}
		q.Upvotes = upvotes
		return s.PutQuestion(uow, q)
	})
	require.NoError(t, err)
}

func TestGetQuestion_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetQuestion(context.Background(), "q_missing")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestListQuestions_FilterByTagAndAuthor(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateUser(t, store, "user_2", "Bruna")
	mustCreateQuestion(t, store, "q_1", "user_1", "go")
	mustCreateQuestion(t, store, "q_2", "user_2", "go")
	mustCreateQuestion(t, store, "q_3", "user_1", "rust")

	tag, err := store.GetTagByName(ctx, "go")
	require.NoError(t, err)

	byTag, err := store.ListQuestions(ctx, QuestionFilter{TagID: tag.ID}, PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, byTag.Total)

	byAuthor, err := store.ListQuestions(ctx, QuestionFilter{AuthorID: "user_1"}, PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, byAuthor.Total)

	both, err := store.ListQuestions(ctx, QuestionFilter{TagID: tag.ID, AuthorID: "user_1"}, PageParams{})
	require.NoError(t, err)
	require.Equal(t, 1, both.Total)
	assert.Equal(t, "q_1", both.Items[0].ID)
}

func TestListQuestions_PopularSortWithIDTieBreak(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1")
	mustCreateQuestion(t, store, "q_2", "user_1")
	mustCreateQuestion(t, store, "q_3", "user_1")

	setUpvotes(t, store, "q_1", 5)
	setUpvotes(t, store, "q_2", 9)
	setUpvotes(t, store, "q_3", 5)

	page, err := store.ListQuestions(ctx, QuestionFilter{Sort: QuestionSortPopular}, PageParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	// Highest upvotes first; equal upvotes break on ID descending.
	assert.Equal(t, "q_2", page.Items[0].ID)
	assert.Equal(t, "q_3", page.Items[1].ID)
	assert.Equal(t, "q_1", page.Items[2].ID)
}

func TestListQuestions_Unanswered(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1")
	mustCreateQuestion(t, store, "q_2", "user_1")
	mustCreateAnswer(t, store, "a_1", "q_1", "user_1")

	page, err := store.ListQuestions(ctx, QuestionFilter{Sort: QuestionSortUnanswered}, PageParams{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "q_2", page.Items[0].ID)
}

func TestListQuestions_SubstringQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")

	now := time.Now()
	fixtures := []struct {
		id, title, body string
	}{
		{"q_1", "Deadlock in the worker pool", "Two goroutines wait on each other."},
		{"q_2", "Slow queries", "Every DEADLOCK retry doubles the latency."},
		{"q_3", "Unrelated", "Nothing matches here."},
	}
	for _, f := range fixtures {
		q := &domain.Question{ID: f.id, Title: f.title, Body: f.body, AuthorID: "user_1", CreatedAt: now, UpdatedAt: now}
		err := store.RunInTxn(ctx, func(uow *UnitOfWork) error {
			return store.PutQuestion(uow, q)
		})
		require.NoError(t, err)
	}

	// Case-insensitive, matches title or body.
	page, err := store.ListQuestions(ctx, QuestionFilter{Query: "deadlock"}, PageParams{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "q_2", page.Items[0].ID)
	assert.Equal(t, "q_1", page.Items[1].ID)

	// Surrounding whitespace is ignored; no match yields an empty page.
	page, err = store.ListQuestions(ctx, QuestionFilter{Query: "  Deadlock  "}, PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = store.ListQuestions(ctx, QuestionFilter{Query: "nonexistent"}, PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestListQuestions_PaginationIsDeterministic(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	// Identical timestamps force the ID tie-break across the whole set.
	now := time.Now()
	for _, questionID := range []string{"q_1", "q_2", "q_3", "q_4", "q_5"} {
		q := &domain.Question{
			ID:        questionID,
			Title:     "t",
			Body:      "b",
			AuthorID:  "user_1",
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := store.RunInTxn(ctx, func(uow *UnitOfWork) error {
			return store.PutQuestion(uow, q)
		})
		require.NoError(t, err)
	}

	first, err := store.ListQuestions(ctx, QuestionFilter{}, PageParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	second, err := store.ListQuestions(ctx, QuestionFilter{}, PageParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	third, err := store.ListQuestions(ctx, QuestionFilter{}, PageParams{Page: 3, PageSize: 2})
	require.NoError(t, err)

	var seen []string
	for _, page := range []Paged[*domain.Question]{first, second, third} {
		for _, q := range page.Items {
			seen = append(seen, q.ID)
		}
	}

	assert.Equal(t, []string{"q_5", "q_4", "q_3", "q_2", "q_1"}, seen)
	assert.True(t, first.HasNext)
	assert.True(t, second.HasNext)
	assert.False(t, third.HasNext)
	assert.Equal(t, 5, first.Total)
}

func TestIncrementQuestionViews(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1")

	for i := 0; i < 3; i++ {
		err := store.RunInTxn(ctx, func(uow *UnitOfWork) error {
			_, err := store.IncrementQuestionViews(uow, "q_1")
			return err
		})
		require.NoError(t, err)
	}

	q, err := store.GetQuestion(ctx, "q_1")
	require.NoError(t, err)
	assert.Equal(t, 3, q.Views)
}

func TestDeleteQuestionCascade(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateUser(t, store, "user_2", "Bruna")
	mustCreateQuestion(t, store, "q_1", "user_1", "go", "testing")
	mustCreateAnswer(t, store, "a_1", "q_1", "user_2")

	// A vote on the question, a vote on the answer, and a bookmark.
	err := store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		now := time.Now()
		qVote := &domain.Vote{
			AuthorID:  "user_2",
			Target:    domain.Target{Kind: domain.TargetQuestion, ID: "q_1"},
			Kind:      domain.VoteUp,
			CreatedAt: now,
		}
		if err := store.PutVote(uow, qVote); err != nil {
			return err
		}
		aVote := &domain.Vote{
			AuthorID:  "user_1",
			Target:    domain.Target{Kind: domain.TargetAnswer, ID: "a_1"},
			Kind:      domain.VoteUp,
			CreatedAt: now,
		}
		if err := store.PutVote(uow, aVote); err != nil {
			return err
		}
		return store.PutBookmark(uow, &domain.SavedQuestion{
			UserID:     "user_2",
			QuestionID: "q_1",
			CreatedAt:  now,
		})
	})
	require.NoError(t, err)

	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		_, err := store.DeleteQuestionCascade(uow, "q_1")
		return err
	})
	require.NoError(t, err)

	// Question and answer gone.
	_, err = store.GetQuestion(ctx, "q_1")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	_, err = store.GetAnswer(ctx, "a_1")
	assert.ErrorIs(t, err, ErrAnswerNotFound)

	// Votes on both gone.
	_, err = store.GetVote(ctx, "user_2", domain.Target{Kind: domain.TargetQuestion, ID: "q_1"})
	assert.ErrorIs(t, err, ErrVoteNotFound)
	_, err = store.GetVote(ctx, "user_1", domain.Target{Kind: domain.TargetAnswer, ID: "a_1"})
	assert.ErrorIs(t, err, ErrVoteNotFound)

	// Bookmark gone.
	saved, err := store.IsBookmarked(ctx, "user_2", "q_1")
	require.NoError(t, err)
	assert.False(t, saved)

	// Tags survive with decremented counts.
	for _, name := range []string{"go", "testing"} {
		tag, err := store.GetTagByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, 0, tag.QuestionCount)
	}
}

func TestDeleteQuestionCascade_FailureRollsBackEverything(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateUser(t, store, "user_2", "Bruna")
	mustCreateQuestion(t, store, "q_1", "user_1", "go")
	mustCreateAnswer(t, store, "a_1", "q_1", "user_2")

	now := time.Now()
	err := store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		vote := &domain.Vote{
			AuthorID:  "user_2",
			Target:    domain.Target{Kind: domain.TargetQuestion, ID: "q_1"},
			Kind:      domain.VoteUp,
			CreatedAt: now,
		}
		if err := store.PutVote(uow, vote); err != nil {
			return err
		}
		return store.PutBookmark(uow, &domain.SavedQuestion{UserID: "user_2", QuestionID: "q_1", CreatedAt: now})
	})
	require.NoError(t, err)

	// The cascade runs to completion inside the transaction, then a later
	// step fails: the abort must leave every row untouched.
	boom := errors.New("boom")
	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		if _, err := store.DeleteQuestionCascade(uow, "q_1"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	q, err := store.GetQuestion(ctx, "q_1")
	require.NoError(t, err)
	assert.Equal(t, 1, q.AnswerCount)

	_, err = store.GetAnswer(ctx, "a_1")
	require.NoError(t, err)

	_, err = store.GetVote(ctx, "user_2", domain.Target{Kind: domain.TargetQuestion, ID: "q_1"})
	require.NoError(t, err)

	saved, err := store.IsBookmarked(ctx, "user_2", "q_1")
	require.NoError(t, err)
	assert.True(t, saved)

	tag, err := store.GetTagByName(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.QuestionCount)
}

func TestCreateAnswer_BumpsAnswerCount(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1")
	mustCreateAnswer(t, store, "a_1", "q_1", "user_1")
	mustCreateAnswer(t, store, "a_2", "q_1", "user_1")

	q, err := store.GetQuestion(ctx, "q_1")
	require.NoError(t, err)
	assert.Equal(t, 2, q.AnswerCount)

	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		_, err := store.DeleteAnswerCascade(uow, "a_1")
		return err
	})
	require.NoError(t, err)

	q, err = store.GetQuestion(ctx, "q_1")
	require.NoError(t, err)
	assert.Equal(t, 1, q.AnswerCount)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/errors"
)

func TestVoteToggle_AddThenRemove(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")
	q := env.createQuestion(t, "user_1")
	target := domain.Target{Kind: domain.TargetQuestion, ID: q.ID}

	// First press records the vote.
	result, err := env.votes.Toggle(ctx, "user_2", target, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteAdded, result.Status)

	got, err := env.store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)
	assert.Equal(t, 0, got.Downvotes)

	// Same press again withdraws it.
	result, err = env.votes.Toggle(ctx, "user_2", target, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteRemoved, result.Status)

	got, err = env.store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Upvotes)

	status, err := env.votes.Status(ctx, "user_2", target)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestVoteToggle_FlipMovesOnlyNewCounter(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")
	q := env.createQuestion(t, "user_1")
	target := domain.Target{Kind: domain.TargetQuestion, ID: q.ID}

	_, err := env.votes.Toggle(ctx, "user_2", target, domain.VoteUp)
	require.NoError(t, err)

	result, err := env.votes.Toggle(ctx, "user_2", target, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, VoteFlipped, result.Status)

	// The flip bumps the new direction and leaves the old counter alone.
	got, err := env.store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)
	assert.Equal(t, 1, got.Downvotes)

	// One vote record, now pointing down.
	status, err := env.votes.Status(ctx, "user_2", target)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, domain.VoteDown, status.Kind)
}

func TestVoteToggle_FullCycleEndsNeutral(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")
	q := env.createQuestion(t, "user_1")
	target := domain.Target{Kind: domain.TargetQuestion, ID: q.ID}

	// up, flip to down, remove down.
	for _, kind := range []domain.VoteKind{domain.VoteUp, domain.VoteDown, domain.VoteDown} {
		_, err := env.votes.Toggle(ctx, "user_2", target, kind)
		require.NoError(t, err)
	}

	got, err := env.store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes, "flip leaves the old counter in place")
	assert.Equal(t, 0, got.Downvotes)

	status, err := env.votes.Status(ctx, "user_2", target)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestVoteToggle_OnAnswer(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	env.createUser(t, "user_1", "Alice")
	env.createUser(t, "user_2", "Bruna")
	q := env.createQuestion(t, "user_1")
	a, err := env.answers.Create(ctx, "user_1", q.ID, CreateAnswerRequest{
		Body: "An answer body long enough to pass validation rules.",
	})
	require.NoError(t, err)

	target := domain.Target{Kind: domain.TargetAnswer, ID: a.ID}
	result, err := env.votes.Toggle(ctx, "user_2", target, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, VoteAdded, result.Status)

	got, err := env.store.GetAnswer(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Downvotes)
}

func TestVoteToggle_Rejections(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	ctx := context.Background()
	env.createUser(t, "user_1", "Alice")
	q := env.createQuestion(t, "user_1")

	// Missing target.
	_, err := env.votes.Toggle(ctx, "user_1", domain.Target{Kind: domain.TargetQuestion, ID: "q_missing"}, domain.VoteUp)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	// Unknown target kind.
	_, err = env.votes.Toggle(ctx, "user_1", domain.Target{Kind: "comment", ID: q.ID}, domain.VoteUp)
	assert.ErrorIs(t, err, errors.ErrValidation)

	// Unknown vote kind.
	_, err = env.votes.Toggle(ctx, "user_1", domain.Target{Kind: domain.TargetQuestion, ID: q.ID}, "sideways")
	assert.ErrorIs(t, err, errors.ErrValidation)
}

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// setupTestStore creates a temporary store for testing
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create temp directory for test database
	tmpDir, err := os.MkdirTemp("", "answerhub-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	// Create store with noop emitter for testing
	store, err := New(dbPath, nil, NewNoopEmitter())
	require.NoError(t, err)
	require.NotNil(t, store)

	// Return cleanup function
	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// mustCreateUser writes a user fixture.
func mustCreateUser(t *testing.T, s *Store, userID, name string) *domain.User {
	t.Helper()

	now := time.Now()
	u := &domain.User{
		ID:           userID,
		Name:         name,
		Email:        userID + "@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.RunInTxn(context.Background(), func(uow *UnitOfWork) error {
		return s.CreateUser(uow, u)
	})
	require.NoError(t, err)
	return u
}

// mustCreateQuestion writes a question fixture with its tags attached.
func mustCreateQuestion(t *testing.T, s *Store, questionID, authorID string, tagNames ...string) *domain.Question {
	t.Helper()

	now := time.Now()
	q := &domain.Question{
		ID:        questionID,
		Title:     "Test question " + questionID,
		Body:      "A body long enough to be plausible for " + questionID,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.RunInTxn(context.Background(), func(uow *UnitOfWork) error {
		for _, name := range tagNames {
			tag, _, err := s.FindOrCreateTag(uow, name)
			if err != nil {
				return err
			}
			if err := s.AttachTagToQuestion(uow, tag.ID, questionID); err != nil {
				return err
			}
			q.TagIDs = append(q.TagIDs, tag.ID)
		}
		return s.PutQuestion(uow, q)
	})
	require.NoError(t, err)
	return q
}

// mustCreateAnswer writes an answer fixture under a question.
func mustCreateAnswer(t *testing.T, s *Store, answerID, questionID, authorID string) *domain.Answer {
	t.Helper()

	now := time.Now()
	a := &domain.Answer{
		ID:         answerID,
		QuestionID: questionID,
		AuthorID:   authorID,
		Body:       "An answer body for " + answerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.RunInTxn(context.Background(), func(uow *UnitOfWork) error {
		return s.CreateAnswer(uow, a)
	})
	require.NoError(t, err)
	return a
}

func TestRunInTxn_Commit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")

	u, err := store.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
}

func TestRunInTxn_RollbackOnError(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		now := time.Now()
		u := &domain.User{ID: "user_1", Name: "Alice", Email: "a@example.com", CreatedAt: now, UpdatedAt: now}
		if err := store.CreateUser(uow, u); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing committed
	_, err = store.GetUser(ctx, "user_1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRunInTxn_AfterCommitRunsOnlyOnCommit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	ran := false

	// Failed transaction: hook must not run
	err := store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		uow.AfterCommit(func() { ran = true })
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.False(t, ran, "AfterCommit hook ran on rollback")

	// Successful transaction: hook runs
	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		uow.AfterCommit(func() { ran = true })
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestRunInTxn_CanceledContext(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.RunInTxn(ctx, func(uow *UnitOfWork) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInTxn_MultiEntityAtomicity(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")

	// A question plus two tag attachments in one transaction.
	q := mustCreateQuestion(t, store, "q_1", "user_1", "go", "testing")

	got, err := store.GetQuestion(ctx, "q_1")
	require.NoError(t, err)
	assert.Len(t, got.TagIDs, 2)
	assert.Equal(t, q.TagIDs, got.TagIDs)

	for _, tagID := range got.TagIDs {
		tag, err := store.GetTag(ctx, tagID)
		require.NoError(t, err)
		assert.Equal(t, 1, tag.QuestionCount)
	}
}

package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/domain"
	"github.com/answerhubapp/answerhub-server/internal/jobs"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/store"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// testEnv wires the full service stack against a temporary store. The
// recorder runs for real, so tests that care about interactions or
// reputation call flush to drain it.
type testEnv struct {
	store        *store.Store
	recorder     *jobs.Recorder
	interactions *InteractionService
	questions    *QuestionService
	answers      *AnswerService
	votes        *VoteService
	collections  *CollectionService
	recommend    *RecommendService
	users        *UserService

	cancelRecorder context.CancelFunc
	flushed        bool
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "answerhub-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)

	quiet := logger.New(logger.Config{Writer: io.Discard, Level: logger.ParseLevel("error")})
	v := validation.New()

	recorder := jobs.NewRecorder(st, quiet, 256)
	ctx, cancel := context.WithCancel(context.Background())
	go recorder.Run(ctx)

	interactions := NewInteractionService(st, recorder, quiet)
	questions := NewQuestionService(st, interactions, NoopSearchIndexer{}, v, quiet)

	env := &testEnv{
		store:          st,
		recorder:       recorder,
		interactions:   interactions,
		questions:      questions,
		answers:        NewAnswerService(st, interactions, v, quiet),
		votes:          NewVoteService(st, interactions, quiet),
		collections:    NewCollectionService(st, interactions, quiet),
		recommend:      NewRecommendService(st, quiet),
		users:          NewUserService(st, v, quiet),
		cancelRecorder: cancel,
	}

	cleanup := func() {
		env.flush(t)
		questions.Close()
		st.Close()
		os.RemoveAll(tmpDir)
	}
	return env, cleanup
}

// flush stops the recorder and waits for it to drain. After flush the
// queued interactions and reputation deltas are visible in the store.
func (e *testEnv) flush(t *testing.T) {
	t.Helper()

	if e.flushed {
		return
	}
	e.flushed = true
	e.cancelRecorder()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.recorder.Wait(ctx))
}

func (e *testEnv) createUser(t *testing.T, userID, name string) *domain.User {
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
	err := e.store.RunInTxn(context.Background(), func(uow *store.UnitOfWork) error {
		return e.store.CreateUser(uow, u)
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) createQuestion(t *testing.T, authorID string, tags ...string) *domain.Question {
	t.Helper()

	if len(tags) == 0 {
		tags = []string{"general"}
	}
	q, err := e.questions.Create(context.Background(), authorID, CreateQuestionRequest{
		Title: "How should this behave in practice?",
		Body:  "A long enough body describing the problem in enough detail to pass validation.",
		Tags:  tags,
	})
	require.NoError(t, err)
	return q
}

// createQuestionTitled creates a question with a specific title for tests
// that filter on text.
func (e *testEnv) createQuestionTitled(t *testing.T, authorID, title string, tags ...string) *domain.Question {
	t.Helper()

	if len(tags) == 0 {
		tags = []string{"general"}
	}
	q, err := e.questions.Create(context.Background(), authorID, CreateQuestionRequest{
		Title: title,
		Body:  "A long enough body describing the problem in enough detail to pass validation.",
		Tags:  tags,
	})
	require.NoError(t, err)
	return q
}

// recordInteraction writes an activity record directly, bypassing the
// recorder, so recommendation tests control history precisely.
func (e *testEnv) recordInteraction(t *testing.T, actorID string, action domain.ActionKind, questionID string, at time.Time) {
	t.Helper()

	in := &domain.Interaction{
		ID:        "in_" + actorID + "_" + at.Format("150405.000000000"),
		ActorID:   actorID,
		Action:    action,
		Target:    domain.Target{Kind: domain.TargetQuestion, ID: questionID},
		CreatedAt: at,
	}
	err := e.store.RunInTxn(context.Background(), func(uow *store.UnitOfWork) error {
		return e.store.PutInteraction(uow, in)
	})
	require.NoError(t, err)
}

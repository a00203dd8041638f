package api

import (
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/auth"
	"github.com/answerhubapp/answerhub-server/internal/jobs"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/service"
	"github.com/answerhubapp/answerhub-server/internal/store"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int  `json:"v"`
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   any  `json:"error"`
}

// testServer wraps the API server with a humatest client. The search
// service is left out: search has its own index lifecycle and the
// handlers under test never touch it.
type testServer struct {
	*Server
	api     humatest.TestAPI
	tokens  *auth.TokenService
	cleanup func()
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "answerhub-api-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)

	quiet := logger.New(logger.Config{Writer: io.Discard, Level: logger.ParseLevel("error")})
	v := validation.New()

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute)
	require.NoError(t, err)

	recorder := jobs.NewRecorder(st, quiet, 256)
	recorderCtx, cancelRecorder := context.WithCancel(context.Background())
	go recorder.Run(recorderCtx)

	interactions := service.NewInteractionService(st, recorder, quiet)
	authService := service.NewAuthService(st, tokens, v, quiet)
	questionService := service.NewQuestionService(st, interactions, service.NoopSearchIndexer{}, v, quiet)

	services := &Services{
		Auth:        authService,
		User:        service.NewUserService(st, v, quiet),
		Question:    questionService,
		Answer:      service.NewAnswerService(st, interactions, v, quiet),
		Vote:        service.NewVoteService(st, interactions, quiet),
		Tag:         service.NewTagService(st, quiet),
		Collection:  service.NewCollectionService(st, interactions, quiet),
		Recommend:   service.NewRecommendService(st, quiet),
		Interaction: interactions,
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("AnswerHub API Test", apiVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		router:   router,
		api:      humaAPI,
		logger:   quiet,
	}

	s.registerAuthRoutes()
	s.registerQuestionRoutes()
	s.registerAnswerRoutes()
	s.registerVoteRoutes()
	s.registerTagRoutes()
	s.registerCollectionRoutes()
	s.registerUserRoutes()
	s.registerFeedRoutes()

	cleanup := func() {
		cancelRecorder()
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer waitCancel()
		_ = recorder.Wait(waitCtx)

		questionService.Close()
		authService.Close()
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, humaAPI),
		tokens:  tokens,
		cleanup: cleanup,
	}
}

// registerTestUser creates an account through the API and returns its
// access token and user ID.
func (ts *testServer) registerTestUser(t *testing.T, name, email string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     name,
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[SessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

// askTestQuestion creates a question through the API and returns its ID.
func (ts *testServer) askTestQuestion(t *testing.T, token string, tags ...string) string {
	t.Helper()

	if len(tags) == 0 {
		tags = []string{"general"}
	}
	resp := ts.api.Post("/api/v1/questions", map[string]any{
		"title": "How should this behave in practice?",
		"body":  "A long enough body describing the problem in enough detail.",
		"tags":  tags,
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "create question failed: %s", resp.Body.String())

	var envelope testEnvelope[QuestionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.ID
}

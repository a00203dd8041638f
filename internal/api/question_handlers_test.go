package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestion_ResolvesTags(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, userID := ts.registerTestUser(t, "Alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/questions", map[string]any{
		"title": "How do I structure transactional writes?",
		"body":  "A long enough body describing the problem in enough detail.",
		"tags":  []string{"go", "databases"},
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[QuestionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, userID, envelope.Data.AuthorID)
	require.Len(t, envelope.Data.Tags, 2)
	assert.Equal(t, "go", envelope.Data.Tags[0].Name)
	assert.Equal(t, "databases", envelope.Data.Tags[1].Name)
}

func TestCreateQuestion_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/questions", map[string]any{
		"title": "Asked without any credentials at all",
		"body":  "A long enough body describing the problem in enough detail.",
		"tags":  []string{"go"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateQuestion_SchemaValidation(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.registerTestUser(t, "Alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/questions", map[string]any{
		"title": "hi",
		"body":  "too short",
		"tags":  []string{},
	}, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestGetQuestion_ViewsCountOnlyAuthenticated(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.registerTestUser(t, "Alice", "alice@example.com")
	readerToken, _ := ts.registerTestUser(t, "Bruna", "bruna@example.com")
	questionID := ts.askTestQuestion(t, token)

	// Anonymous reads never count.
	resp := ts.api.Get("/api/v1/questions/" + questionID)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[QuestionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 0, envelope.Data.Views)

	// An authenticated read counts once.
	resp = ts.api.Get("/api/v1/questions/"+questionID, "Authorization: Bearer "+readerToken)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Views)
}

func TestGetQuestion_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/questions/q_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
}

func TestListQuestions_PaginationMeta(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.registerTestUser(t, "Alice", "alice@example.com")
	for i := 0; i < 3; i++ {
		ts.askTestQuestion(t, token)
	}

	resp := ts.api.Get("/api/v1/questions?page=1&page_size=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[QuestionListResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Len(t, envelope.Data.Questions, 2)
	assert.Equal(t, 1, envelope.Data.Meta.Page)
	assert.Equal(t, 2, envelope.Data.Meta.PageSize)
	assert.Equal(t, 3, envelope.Data.Meta.Total)
	assert.True(t, envelope.Data.Meta.HasNext)

	// Defaults apply when no parameters are sent.
	resp = ts.api.Get("/api/v1/questions")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Meta.Page)
	assert.Equal(t, 10, envelope.Data.Meta.PageSize)
	assert.False(t, envelope.Data.Meta.HasNext)
}

func TestUpdateQuestion_OnlyAuthor(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.registerTestUser(t, "Alice", "alice@example.com")
	otherToken, _ := ts.registerTestUser(t, "Bruna", "bruna@example.com")
	questionID := ts.askTestQuestion(t, token)

	body := map[string]any{
		"title": "An edited title that still validates fine",
		"body":  "An edited body that is comfortably past the minimum length.",
		"tags":  []string{"go"},
	}

	resp := ts.api.Patch("/api/v1/questions/"+questionID, body, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Patch("/api/v1/questions/"+questionID, body, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[QuestionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "An edited title that still validates fine", envelope.Data.Title)
}

func TestDeleteQuestion(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.registerTestUser(t, "Alice", "alice@example.com")
	questionID := ts.askTestQuestion(t, token)

	resp := ts.api.Delete("/api/v1/questions/"+questionID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/questions/" + questionID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateAnswer_BumpsQuestionCount(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, _ := ts.registerTestUser(t, "Alice", "alice@example.com")
	questionID := ts.askTestQuestion(t, token)

	resp := ts.api.Post("/api/v1/questions/"+questionID+"/answers", map[string]any{
		"body": "An answer body long enough to pass validation rules.",
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/questions/" + questionID)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[QuestionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.AnswerCount)
}

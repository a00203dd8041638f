package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[SessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	assert.Equal(t, "Alice", envelope.Data.User.Name)
	assert.NotEmpty(t, envelope.Data.AccessToken)

	// The token carries the new user's identity.
	claims, err := ts.tokens.VerifyAccessToken(envelope.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, envelope.Data.User.ID, claims.UserID)

	// Email never appears in API responses.
	assert.NotContains(t, resp.Body.String(), "alice@example.com")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.registerTestUser(t, "Alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "Impostor",
		"email":    "ALICE@example.com",
		"password": "another password here",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.NotNil(t, envelope.Error)
}

func TestRegister_ValidationRejected(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"name":     "A",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestLogin_Success(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, userID := ts.registerTestUser(t, "Alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "Alice@Example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[SessionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, userID, envelope.Data.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.registerTestUser(t, "Alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong password here",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, userID := ts.registerTestUser(t, "Alice", "alice@example.com")

	resp := ts.api.Get("/api/v1/auth/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, userID, envelope.Data.ID)
}

func TestGetCurrentUser_NoToken(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/auth/me", "Authorization: Bearer garbage-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

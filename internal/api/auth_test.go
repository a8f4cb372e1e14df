package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLogin(t *testing.T) {
	env := setupTestEnv(t)
	env.registerUser(t, "alice")

	w := env.request(t, http.MethodPost, "/api/v1/auth/token/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AuthToken string `json:"auth_token"`
	}
	decodeJSON(t, w, &resp)
	assert.NotEmpty(t, resp.AuthToken)

	w = env.request(t, http.MethodPost, "/api/v1/auth/token/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenLogout(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, "alice")

	w := env.request(t, http.MethodPost, "/api/v1/auth/token/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/auth/token/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedEndpointRejectsBadTokens(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

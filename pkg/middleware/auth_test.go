package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"elapor/internal/model"
	"elapor/internal/service"
	"elapor/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*gin.Engine, service.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(redis.NewMemoryStore(), "test-secret", time.Hour, 24*time.Hour)

	r := gin.New()
	r.GET("/me", NewAuthMiddleware(tokens).HandleAuth(), func(c *gin.Context) {
		claims := MustGetUserFromContext(c)
		c.String(http.StatusOK, claims.UserID+"|"+GetAccessToken(c))
	})
	return r, tokens
}

func TestHandleAuthAcceptsBearerAndCookie(t *testing.T) {
	r, tokens := newAuthRouter(t)
	pair, err := tokens.GenerateTokenPair(context.Background(), &model.Identity{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1|"+pair.AccessToken, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Token-Expires-In"))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieAccessToken, Value: pair.AccessToken})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleAuthRejects(t *testing.T) {
	r, tokens := newAuthRouter(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// refresh tokens are not access tokens
	pair, err := tokens.GenerateTokenPair(ctx, &model.Identity{ID: "u1"})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.NoError(t, tokens.RevokeToken(ctx, pair.AccessToken, model.AccessToken))
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token revoked")
}

func TestQueryTokenOnlyOnUpgrade(t *testing.T) {
	r, tokens := newAuthRouter(t)
	pair, err := tokens.GenerateTokenPair(context.Background(), &model.Identity{ID: "u1"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?access_token="+pair.AccessToken, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me?access_token="+pair.AccessToken, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

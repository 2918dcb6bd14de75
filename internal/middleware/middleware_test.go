package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/decision-board/backend/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		if v := Viewer(c); v != nil {
			c.JSON(http.StatusOK, gin.H{"user_id": *v})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	token, err := tokens.Issue(7, "alice")
	require.NoError(t, err)
	r := newRouter(AuthMiddleware(tokens))

	w := get(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())

	for _, tok := range []string{"", "garbage"} {
		w = get(r, tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"auth_required"`)
	}

	other, err := auth.NewTokens("other", time.Hour).Issue(7, "alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, other).Code)
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	token, err := tokens.Issue(3, "bob")
	require.NoError(t, err)
	r := newRouter(OptionalAuth(tokens))

	assert.JSONEq(t, `{"user_id":3}`, get(r, token).Body.String())
	assert.JSONEq(t, `{"user_id":null}`, get(r, "").Body.String())
	assert.JSONEq(t, `{"user_id":null}`, get(r, "garbage").Body.String())
}

func TestRateLimiter_Window(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	rl.now = func() time.Time { return now }

	for range 2 {
		ok, err := rl.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "user:1")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "user:2")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _ = rl.Allow(ctx, "user:1")
	assert.True(t, ok, "window resets")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_Handler(t *testing.T) {
	cfg := RateLimitConfig{Max: 1, Window: time.Minute}
	r := newRouter(RateLimit(NewRateLimiter(cfg), cfg, KeyByUser))

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	w := get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"rate_limited"`)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	open := newRouter(RateLimit(failingLimiter{}, cfg, KeyByUser))
	assert.Equal(t, http.StatusOK, get(open, "").Code)
}

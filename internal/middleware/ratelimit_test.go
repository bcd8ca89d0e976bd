package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSlidingWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()
	window := time.Minute

	for i := 0; i < 3; i++ {
		allowed, err := store.Take(ctx, "k", base, window, 3)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := store.Take(ctx, "k", base, window, 3)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Another identity is tracked independently.
	allowed, err = store.Take(ctx, "other", base, window, 3)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Once the window slides past the earlier hits, the identity is
	// readmitted.
	allowed, err = store.Take(ctx, "k", base.Add(window+time.Second), window, 3)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/ping", RateLimit(NewMemoryStore(), 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, 60, body.RetryAfter)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"churchsite/internal/cache"
)

type countingStore struct {
	limit int
	seen  map[string]int
}

func (s *countingStore) Allow(identifier string) (bool, error) {
	s.seen[identifier]++
	return s.seen[identifier] <= s.limit, nil
}

func TestRateLimit_DeniesOverBudget(t *testing.T) {
	e := echo.New()
	store := &countingStore{limit: 2, seen: map[string]int{}}
	e.POST("/api/member-lookup", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(store, "member_lookup", nil))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/member-lookup", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, send("203.0.113.1").Code)
	denied := send("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.Contains(t, denied.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, send("203.0.113.2").Code)
}

func TestRedisRateLimiterStore_FailsOpenWithoutRedis(t *testing.T) {
	store := NewRedisRateLimiterStore(&cache.Client{}, "member_lookup", 1, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow("203.0.113.1")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestRedisRateLimiterStore_ZeroLimitDisables(t *testing.T) {
	store := NewRedisRateLimiterStore(nil, "member_lookup", 0, time.Minute)

	allowed, err := store.Allow("203.0.113.1")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

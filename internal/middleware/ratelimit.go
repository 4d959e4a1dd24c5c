package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"churchsite/internal/cache"
	apperrors "churchsite/internal/errors"
	"churchsite/internal/metrics"
)

const rateLimitKeyPrefix = "ratelimit:"

// RedisRateLimiterStore is a fixed window limiter shared by every instance
// through Redis. When Redis is unavailable requests are allowed.
type RedisRateLimiterStore struct {
	cache   *cache.Client
	name    string
	limit   int64
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

var _ echomw.RateLimiterStore = (*RedisRateLimiterStore)(nil)

// NewRedisRateLimiterStore allows limit requests per identifier per window.
func NewRedisRateLimiterStore(c *cache.Client, name string, limit int, window time.Duration) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{
		cache:   c,
		name:    name,
		limit:   int64(limit),
		window:  window,
		timeout: 200 * time.Millisecond,
		now:     time.Now,
	}
}

// Allow implements echo's RateLimiterStore.
func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	if s.limit <= 0 {
		return true, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	bucket := s.now().Truncate(s.window).Unix()
	key := fmt.Sprintf("%s%s:%s:%d", rateLimitKeyPrefix, s.name, identifier, bucket)

	count, err := s.cache.IncrWindow(ctx, key, s.window)
	if err != nil {
		return true, nil
	}
	return count <= s.limit, nil
}

// RateLimit rejects requests over the store's budget with 429, keyed by the
// client IP.
func RateLimit(store echomw.RateLimiterStore, route string, m *metrics.Metrics) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
				Error: "unable to identify client",
				Code:  "FORBIDDEN",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			m.RateLimited(route)
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: "too many requests",
				Code:  "RATE_LIMITED",
			})
		},
	})
}

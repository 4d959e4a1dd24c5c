package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"churchsite/internal/auth"
	apperrors "churchsite/internal/errors"
	"churchsite/internal/metrics"
)

const (
	// LoginPath is always reachable, signed in or not.
	LoginPath = "/members/login"

	membersPrefix = "/members"
	authPrefix    = "/auth"
)

// Session resolves the cookie session on /members and /auth paths, writing
// rotated cookies onto the response. Requests under /members without a
// principal are redirected to the login page with nothing carried over.
// Provider errors count as no principal.
func Session(manager *auth.SessionManager, m *metrics.Metrics, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if !underPrefix(path, membersPrefix) && !underPrefix(path, authPrefix) {
				return next(c)
			}

			p, err := manager.For(c).CurrentPrincipal(c.Request().Context())
			if err != nil && !errors.Is(err, apperrors.ErrUnauthenticated) {
				logger.Warn("resolve session", zap.String("path", path), zap.Error(err))
			}

			if path == LoginPath {
				return next(c)
			}

			if p == nil && underPrefix(path, membersPrefix) {
				reason := "no_session"
				if err != nil && errors.Unwrap(err) != nil {
					reason = "refresh_failed"
				}
				m.AuthRedirect(reason)
				return c.Redirect(http.StatusFound, LoginPath)
			}

			return next(c)
		}
	}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"churchsite/internal/auth"
	"churchsite/internal/config"
	apperrors "churchsite/internal/errors"
	"churchsite/internal/handler"
	"churchsite/internal/metrics"
	appmw "churchsite/internal/middleware"
)

// Deps bundles what the routes need.
type Deps struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Sessions      *auth.SessionManager
	JWT           *auth.JWTService
	Tokens        auth.TokenStoreInterface
	LookupLimiter middleware.RateLimiterStore
	// IPExtractor picks the client address used for rate limiting. Nil
	// means the connection peer.
	IPExtractor echo.IPExtractor
	Health        func(c echo.Context) error

	AuthHandler   *handler.AuthHandler
	MemberHandler *handler.MemberHandler
	PrayerHandler *handler.PrayerHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.IPExtractor = d.IPExtractor
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger(d.Logger))
	e.Use(middleware.Recover())
	e.Use(appmw.Session(d.Sessions, d.Metrics, d.Logger))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	health := d.Health
	if health == nil {
		health = func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	}
	e.GET("/healthz", health)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Login and session
	e.GET("/members/login", d.AuthHandler.LoginPage)
	e.POST("/members/login", d.AuthHandler.SendLoginLink)
	e.GET("/auth/callback", d.AuthHandler.Callback)
	e.POST("/auth/signout", d.AuthHandler.SignOut)

	// Member pages, gated by the session middleware
	e.GET("/members", d.MemberHandler.DirectoryPage)
	e.GET("/members/hub", d.MemberHandler.Hub)
	e.GET("/members/prayer-requests", d.PrayerHandler.Page)
	e.POST("/members/prayer-requests", d.PrayerHandler.Submit)
	e.POST("/members/prayer-requests/:id/delete", d.PrayerHandler.Remove)

	api := e.Group("/api")

	// Public routes
	var lookupMW []echo.MiddlewareFunc
	switch {
	case d.LookupLimiter != nil:
		lookupMW = append(lookupMW, appmw.RateLimit(d.LookupLimiter, "member_lookup", d.Metrics))
	case d.Config.LookupRateLimit > 0:
		store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(d.Config.LookupRateLimit) / time.Minute.Seconds()),
			Burst:     d.Config.LookupRateLimit,
			ExpiresIn: 3 * time.Minute,
		})
		lookupMW = append(lookupMW, appmw.RateLimit(store, "member_lookup", d.Metrics))
	}
	api.POST("/member-lookup", d.MemberHandler.Lookup, lookupMW...)

	// Secured routes (require a provider access token)
	secured := api.Group("/members", echojwt.WithConfig(echojwt.Config{
		ContextKey:     auth.PrincipalContextKey,
		TokenLookup:    "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + auth.AccessTokenCookie,
		ParseTokenFunc: parseAccessToken(d.JWT, d.Tokens),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: apperrors.ErrUnauthenticated.Error(),
				Code:  "UNAUTHENTICATED",
			})
		},
	}))

	secured.GET("/directory", d.MemberHandler.Directory)
	secured.GET("/prayer-requests", d.PrayerHandler.List)
	secured.POST("/prayer-requests", d.PrayerHandler.Create)
	secured.DELETE("/prayer-requests/:id", d.PrayerHandler.Delete)
}

// parseAccessToken verifies a provider access token and rejects signed-out
// sessions. The principal becomes the request's context value.
func parseAccessToken(jwtService *auth.JWTService, tokens auth.TokenStoreInterface) func(c echo.Context, token string) (interface{}, error) {
	return func(c echo.Context, token string) (interface{}, error) {
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		if tokens != nil {
			revoked, err := tokens.IsSessionRevoked(c.Request().Context(), claims.RevocationKey())
			if err == nil && revoked {
				return nil, apperrors.ErrUnauthenticated
			}
		}
		return claims.Principal(), nil
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

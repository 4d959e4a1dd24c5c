package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"churchsite/internal/auth"
	"churchsite/internal/authstate"
	"churchsite/internal/config"
	"churchsite/internal/idp"
	"churchsite/internal/service"
	"churchsite/internal/view"
)

const (
	callbackPath        = "/auth/callback"
	headerForwardedHost = "X-Forwarded-Host"
)

// AuthHandler handles the login page, the login callback and sign-out.
type AuthHandler struct {
	authService service.AuthService
	completion  service.LoginCompletionService
	sessions    *auth.SessionManager
	members     authstate.MemberFinder
	cfg         *config.Config
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	authService service.AuthService,
	completion service.LoginCompletionService,
	sessions *auth.SessionManager,
	members authstate.MemberFinder,
	cfg *config.Config,
	logger *zap.Logger,
) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		authService: authService,
		completion:  completion,
		sessions:    sessions,
		members:     members,
		cfg:         cfg,
		logger:      logger,
	}
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email string `form:"email" json:"email" validate:"required,email"`
}

// LoginPage renders the login form. Signed-in visitors go to the hub.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	if auth.PrincipalFrom(c) != nil {
		return c.Redirect(http.StatusFound, service.HubPath)
	}
	return c.Render(http.StatusOK, view.PageLogin, view.LoginData{
		Base:      view.Base{Title: "Member Login"},
		AuthError: c.QueryParam("error") == "auth",
	})
}

// SendLoginLink emails a one-time sign-in link. The confirmation screen is
// the same whether or not the provider accepted the address.
func (h *AuthHandler) SendLoginLink(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusBadRequest, view.PageLogin, view.LoginData{
			Base:      view.Base{Title: "Member Login"},
			Email:     req.Email,
			FormError: "Please enter a valid email address.",
		})
	}

	redirectURL := h.linkBase(c) + callbackPath
	verifier, err := h.authService.RequestLoginLink(c.Request().Context(), req.Email, redirectURL)
	if err != nil {
		h.logger.Warn("send login link", zap.Error(err))
	} else {
		h.sessions.For(c).SetCodeVerifier(verifier)
	}

	return c.Render(http.StatusOK, view.PageLogin, view.LoginData{
		Base:  view.Base{Title: "Member Login"},
		Email: req.Email,
		Sent:  true,
	})
}

// Callback completes the login handshake and always redirects.
func (h *AuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	sess := h.sessions.For(c)
	base := h.redirectBase(c)

	result := h.completion.CompleteLogin(ctx, service.CallbackParams{
		Code:         c.QueryParam("code"),
		TokenHash:    c.QueryParam("token_hash"),
		Type:         idp.OTPType(c.QueryParam("type")),
		CodeVerifier: sess.TakeCodeVerifier(),
	})
	if result.State != service.StateCompleted {
		h.logger.Info("login callback failed", zap.String("strategy", result.Strategy), zap.Error(result.Err))
		return c.Redirect(http.StatusFound, base+service.LoginFailurePath)
	}

	p, err := sess.Establish(ctx, result.Session)
	if err != nil {
		h.logger.Warn("establish session", zap.String("strategy", result.Strategy), zap.Error(err))
		return c.Redirect(http.StatusFound, base+service.LoginFailurePath)
	}

	if updated := h.completion.BackfillDisplayName(ctx, sess.AccessToken(), p); updated != p {
		sess.UpdatePrincipal(updated)
	}

	return c.Redirect(http.StatusFound, base+result.RedirectPath())
}

// SignOut ends the session and returns to the home page. Signing out twice
// is harmless.
func (h *AuthHandler) SignOut(c echo.Context) error {
	store := authstate.New(h.sessions.For(c), h.members)
	if err := store.SignOut(c.Request().Context()); err != nil {
		h.logger.Warn("provider sign out", zap.Error(err))
	}
	return c.Redirect(http.StatusFound, "/")
}

// linkBase is the base of the emailed link. A configured site URL wins.
func (h *AuthHandler) linkBase(c echo.Context) string {
	if h.cfg.SiteURL != "" {
		return strings.TrimRight(h.cfg.SiteURL, "/")
	}
	return h.redirectBase(c)
}

func (h *AuthHandler) redirectBase(c echo.Context) string {
	origin := c.Scheme() + "://" + c.Request().Host
	return service.ResolveRedirectBase(origin, c.Request().Header.Get(headerForwardedHost), h.cfg.IsDevelopment())
}

package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "churchsite/internal/errors"
	"churchsite/internal/idp"
	"churchsite/internal/metrics"
)

const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
	CodeVerifierCookie = "sb-code-verifier"

	// PrincipalContextKey holds the *idp.Principal of an authenticated request.
	PrincipalContextKey = "principal"

	requestSessionKey = "auth_session"
	codeVerifierTTL   = 10 * time.Minute
)

// CookieConfig controls how session cookies are written.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

// SessionManager resolves, refreshes and clears cookie sessions.
type SessionManager struct {
	provider idp.Provider
	jwt      *JWTService
	tokens   TokenStoreInterface
	cookies  CookieConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSessionManager creates a session manager.
func NewSessionManager(provider idp.Provider, jwtService *JWTService, tokens TokenStoreInterface, cookies CookieConfig, m *metrics.Metrics, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		provider: provider,
		jwt:      jwtService,
		tokens:   tokens,
		cookies:  cookies,
		metrics:  m,
		logger:   logger,
	}
}

// For returns the session bound to the request, creating it on first use.
func (m *SessionManager) For(c echo.Context) *RequestSession {
	if s, ok := c.Get(requestSessionKey).(*RequestSession); ok {
		return s
	}
	s := &RequestSession{m: m, c: c}
	c.Set(requestSessionKey, s)
	return s
}

// PrincipalFrom returns the principal stored on the request context, if any.
func PrincipalFrom(c echo.Context) *idp.Principal {
	p, _ := c.Get(PrincipalContextKey).(*idp.Principal)
	return p
}

// RequestSession is the session of one request. It resolves at most once and
// notifies subscribers when the session is established, refreshed or cleared.
type RequestSession struct {
	m *SessionManager
	c echo.Context

	notifier Notifier

	mu          sync.Mutex
	resolved    bool
	signedOut   bool
	principal   *idp.Principal
	claims      *Claims
	accessToken string
}

// OnSessionChange subscribes to changes of this session.
func (s *RequestSession) OnSessionChange(fn func(SessionChange)) func() {
	return s.notifier.OnSessionChange(fn)
}

// CurrentPrincipal validates the session cookies, refreshing the token pair
// when the access token is no longer valid. It returns ErrUnauthenticated
// when no principal resolves; provider errors are folded into that.
func (s *RequestSession) CurrentPrincipal(ctx context.Context) (*idp.Principal, error) {
	s.mu.Lock()
	if s.resolved {
		p := s.principal
		s.mu.Unlock()
		if p == nil {
			return nil, apperrors.ErrUnauthenticated
		}
		return p, nil
	}
	s.mu.Unlock()

	p, err := s.resolve(ctx)

	s.mu.Lock()
	s.resolved = true
	s.principal = p
	s.mu.Unlock()

	if p != nil {
		s.c.Set(PrincipalContextKey, p)
	}
	return p, err
}

// AccessToken returns the access token of the resolved session.
func (s *RequestSession) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *RequestSession) resolve(ctx context.Context) (*idp.Principal, error) {
	s.mu.Lock()
	signedOut := s.signedOut
	s.mu.Unlock()
	if signedOut {
		return nil, apperrors.ErrUnauthenticated
	}

	access := s.cookie(AccessTokenCookie)
	refresh := s.cookie(RefreshTokenCookie)

	if access != "" {
		claims, err := s.m.jwt.ValidateToken(access)
		if err == nil {
			if s.revoked(ctx, claims) {
				s.clearSessionCookies()
				return nil, apperrors.ErrUnauthenticated
			}
			s.mu.Lock()
			s.claims = claims
			s.accessToken = access
			s.mu.Unlock()
			return claims.Principal(), nil
		}
		if !IsExpired(err) {
			s.m.logger.Debug("access token rejected", zap.Error(err))
		}
	}

	if refresh == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	sess, err := s.m.provider.RefreshSession(ctx, refresh)
	if err != nil {
		s.m.metrics.SessionRefreshed("failure")
		status := idp.StatusCode(err)
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			s.clearSessionCookies()
		}
		s.m.logger.Info("session refresh failed", zap.Int("status", status), zap.Error(err))
		return nil, fmt.Errorf("%w: refresh session: %v", apperrors.ErrUnauthenticated, err)
	}
	s.m.metrics.SessionRefreshed("success")

	p, err := s.adopt(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}
	s.notifier.Publish(SessionChange{Event: EventTokenRefreshed, Principal: p})
	return p, nil
}

// Establish stores a freshly issued session in cookies and marks the
// request as authenticated.
func (s *RequestSession) Establish(ctx context.Context, sess *idp.Session) (*idp.Principal, error) {
	p, err := s.adopt(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.resolved = true
	s.signedOut = false
	s.principal = p
	s.mu.Unlock()
	s.c.Set(PrincipalContextKey, p)

	s.notifier.Publish(SessionChange{Event: EventSignedIn, Principal: p})
	return p, nil
}

// UpdatePrincipal replaces the cached principal, e.g. after a metadata update.
func (s *RequestSession) UpdatePrincipal(p *idp.Principal) {
	if p == nil {
		return
	}
	s.mu.Lock()
	s.principal = p
	s.mu.Unlock()
	s.c.Set(PrincipalContextKey, p)
}

// adopt verifies an issued session and stores its tokens. A session that
// arrives without its user is completed from the provider's user endpoint;
// the token claims are used when that lookup fails or disagrees.
func (s *RequestSession) adopt(ctx context.Context, sess *idp.Session) (*idp.Principal, error) {
	claims, err := s.m.jwt.ValidateToken(sess.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("validate issued token: %w", err)
	}

	p := sess.User
	if p == nil {
		p = s.fetchUser(ctx, sess.AccessToken, claims)
	}

	s.mu.Lock()
	s.claims = claims
	s.accessToken = sess.AccessToken
	s.mu.Unlock()

	s.setCookie(AccessTokenCookie, sess.AccessToken, s.m.cookies.MaxAge)
	s.setCookie(RefreshTokenCookie, sess.RefreshToken, s.m.cookies.MaxAge)
	return p, nil
}

func (s *RequestSession) fetchUser(ctx context.Context, accessToken string, claims *Claims) *idp.Principal {
	user, err := s.m.provider.GetUser(ctx, accessToken)
	switch {
	case err != nil:
		s.m.logger.Info("fetch session user", zap.Int("status", idp.StatusCode(err)), zap.Error(err))
	case user == nil || user.ID != claims.Subject:
		s.m.logger.Warn("session user does not match token subject", zap.String("subject", claims.Subject))
	default:
		return user
	}
	return claims.Principal()
}

// SignOut invalidates the session with the provider and clears the cookies.
// Local state is cleared first so the request is signed out even when the
// provider call fails. Calling it again is a no-op.
func (s *RequestSession) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.accessToken
	claims := s.claims
	already := s.signedOut
	s.signedOut = true
	s.resolved = true
	s.principal = nil
	s.claims = nil
	s.accessToken = ""
	s.mu.Unlock()

	if already {
		return nil
	}

	if token == "" {
		token = s.cookie(AccessTokenCookie)
	}
	s.clearSessionCookies()
	s.c.Set(PrincipalContextKey, nil)

	var err error
	if token != "" {
		if claims == nil {
			claims, _ = s.m.jwt.ValidateToken(token)
		}
		if claims != nil && claims.ExpiresAt != nil {
			if rerr := s.m.tokens.RevokeSession(ctx, claims.RevocationKey(), time.Until(claims.ExpiresAt.Time)); rerr != nil {
				s.m.logger.Warn("revoke session", zap.Error(rerr))
			}
		}
		err = s.m.provider.SignOut(ctx, token)
	}

	s.notifier.Publish(SessionChange{Event: EventSignedOut})
	return err
}

// SetCodeVerifier keeps the PKCE verifier until the login callback.
func (s *RequestSession) SetCodeVerifier(verifier string) {
	s.setCookie(CodeVerifierCookie, verifier, codeVerifierTTL)
}

// TakeCodeVerifier returns the PKCE verifier and clears its cookie.
func (s *RequestSession) TakeCodeVerifier() string {
	v := s.cookie(CodeVerifierCookie)
	if v != "" {
		s.setCookie(CodeVerifierCookie, "", -1)
	}
	return v
}

func (s *RequestSession) revoked(ctx context.Context, claims *Claims) bool {
	revoked, err := s.m.tokens.IsSessionRevoked(ctx, claims.RevocationKey())
	if err != nil {
		s.m.logger.Warn("check session revocation", zap.Error(err))
		return false
	}
	return revoked
}

func (s *RequestSession) cookie(name string) string {
	ck, err := s.c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (s *RequestSession) clearSessionCookies() {
	s.setCookie(AccessTokenCookie, "", -1)
	s.setCookie(RefreshTokenCookie, "", -1)
}

func (s *RequestSession) setCookie(name, value string, maxAge time.Duration) {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.m.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
	} else {
		ck.MaxAge = int(maxAge.Seconds())
	}
	s.c.SetCookie(ck)
}

package service

import (
	"context"
	"fmt"
	"net/mail"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"churchsite/internal/idp"
	"churchsite/internal/metrics"
	"churchsite/internal/model"
)

// AuthService starts passwordless logins.
type AuthService interface {
	// RequestLoginLink asks the provider to email a sign-in link returning
	// to redirectURL. It returns the PKCE verifier the callback must present.
	RequestLoginLink(ctx context.Context, email, redirectURL string) (verifier string, err error)
}

type authService struct {
	provider idp.Provider
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(provider idp.Provider, m *metrics.Metrics, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{provider: provider, metrics: m, logger: logger}
}

func (s *authService) RequestLoginLink(ctx context.Context, email, redirectURL string) (string, error) {
	addr, err := mail.ParseAddress(model.NormalizeEmail(email))
	if err != nil {
		s.metrics.LoginLinkRequested("invalid")
		return "", fmt.Errorf("invalid email address: %w", err)
	}
	email = addr.Address

	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)

	if err := s.provider.RequestOneTimeLink(ctx, email, redirectURL, challenge); err != nil {
		s.metrics.LoginLinkRequested("failure")
		s.logger.Warn("request login link", zap.Int("status", idp.StatusCode(err)), zap.Error(err))
		return "", fmt.Errorf("request login link: %w", err)
	}

	s.metrics.LoginLinkRequested("success")
	return verifier, nil
}

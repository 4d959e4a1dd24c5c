package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "churchsite/internal/errors"
	"churchsite/internal/idp"
	"churchsite/internal/metrics"
	"churchsite/internal/repository"
)

// CompletionState is a state of the login callback.
type CompletionState string

const (
	StateAwaitingCode      CompletionState = "awaiting_code"
	StateAwaitingTokenHash CompletionState = "awaiting_token_hash"
	StateCompleted         CompletionState = "completed"
	StateFailed            CompletionState = "failed"
)

// Paths the callback redirects to, relative to the redirect base.
const (
	HubPath          = "/members/hub"
	LoginPath        = "/members/login"
	LoginFailurePath = LoginPath + "?error=auth"
)

// CallbackParams is the input of a login callback.
type CallbackParams struct {
	Code         string
	TokenHash    string
	Type         idp.OTPType
	CodeVerifier string
}

// CompletionResult is the terminal state of a login callback.
type CompletionResult struct {
	State    CompletionState
	Session  *idp.Session
	Strategy string
	Err      error
}

// RedirectPath returns where the browser goes next.
func (r CompletionResult) RedirectPath() string {
	if r.State == StateCompleted {
		return HubPath
	}
	return LoginFailurePath
}

// completionStrategy is one way of turning callback parameters into a
// session. Strategies are tried in a fixed order.
type completionStrategy interface {
	name() string
	state() CompletionState
	applies(p CallbackParams) bool
	complete(ctx context.Context, provider idp.Provider, p CallbackParams) (*idp.Session, error)
}

type codeExchange struct{}

func (codeExchange) name() string           { return "code" }
func (codeExchange) state() CompletionState { return StateAwaitingCode }

func (codeExchange) applies(p CallbackParams) bool { return p.Code != "" }

func (codeExchange) complete(ctx context.Context, provider idp.Provider, p CallbackParams) (*idp.Session, error) {
	if p.CodeVerifier == "" {
		return nil, errors.New("missing code verifier")
	}
	return provider.ExchangeCode(ctx, p.Code, p.CodeVerifier)
}

type tokenHashVerification struct{}

func (tokenHashVerification) name() string           { return "token_hash" }
func (tokenHashVerification) state() CompletionState { return StateAwaitingTokenHash }

func (tokenHashVerification) applies(p CallbackParams) bool {
	return p.TokenHash != "" && p.Type != ""
}

func (tokenHashVerification) complete(ctx context.Context, provider idp.Provider, p CallbackParams) (*idp.Session, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("unsupported otp type %q", p.Type)
	}
	return provider.VerifyTokenHash(ctx, p.TokenHash, p.Type)
}

var completionStrategies = []completionStrategy{codeExchange{}, tokenHashVerification{}}

// LoginCompletionService completes the passwordless login handshake.
type LoginCompletionService interface {
	CompleteLogin(ctx context.Context, params CallbackParams) CompletionResult
	// BackfillDisplayName copies the member's full name into the principal's
	// metadata when it has none. It never fails; the original principal is
	// returned when anything goes wrong.
	BackfillDisplayName(ctx context.Context, accessToken string, p *idp.Principal) *idp.Principal
}

type loginCompletionService struct {
	provider idp.Provider
	members  repository.MemberRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewLoginCompletionService creates a new login completion service.
func NewLoginCompletionService(provider idp.Provider, members repository.MemberRepository, m *metrics.Metrics, logger *zap.Logger) LoginCompletionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loginCompletionService{provider: provider, members: members, metrics: m, logger: logger}
}

// CompleteLogin runs the strategies in order. A failed code exchange falls
// through to token-hash verification; the first success wins.
func (s *loginCompletionService) CompleteLogin(ctx context.Context, params CallbackParams) CompletionResult {
	result := CompletionResult{State: StateFailed, Err: apperrors.ErrAuthFailed}

	for _, strategy := range completionStrategies {
		if !strategy.applies(params) {
			continue
		}
		result.State = strategy.state()
		result.Strategy = strategy.name()

		sess, err := strategy.complete(ctx, s.provider, params)
		if err == nil && (sess == nil || sess.AccessToken == "") {
			err = idp.ErrNoSession
		}
		if err != nil {
			s.metrics.LoginCompleted(strategy.name(), "failure")
			s.logger.Info("login completion attempt failed",
				zap.String("strategy", strategy.name()),
				zap.Int("status", idp.StatusCode(err)),
				zap.Error(err))
			result.Err = fmt.Errorf("%w: %s: %v", apperrors.ErrAuthFailed, strategy.name(), err)
			continue
		}

		s.metrics.LoginCompleted(strategy.name(), "success")
		return CompletionResult{State: StateCompleted, Session: sess, Strategy: strategy.name()}
	}

	result.State = StateFailed
	if result.Strategy == "" {
		s.metrics.LoginCompleted("none", "failure")
	}
	return result
}

func (s *loginCompletionService) BackfillDisplayName(ctx context.Context, accessToken string, p *idp.Principal) *idp.Principal {
	if p == nil || p.Email == "" || p.DisplayName() != "" {
		return p
	}

	member, err := s.members.FindActiveByEmail(ctx, p.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("display name backfill: member lookup", zap.Error(err))
		}
		return p
	}
	if strings.TrimSpace(member.FullName) == "" {
		return p
	}

	updated, err := s.provider.UpdateUserMetadata(ctx, accessToken, map[string]any{
		idp.MetadataDisplayName: member.FullName,
	})
	if err != nil {
		s.logger.Warn("display name backfill: update metadata", zap.Error(err))
		return p
	}
	if updated == nil || updated.DisplayName() == "" {
		out := *p
		out.UserMetadata = make(map[string]any, len(p.UserMetadata)+1)
		for k, v := range p.UserMetadata {
			out.UserMetadata[k] = v
		}
		out.UserMetadata[idp.MetadataDisplayName] = member.FullName
		return &out
	}
	return updated
}

// ResolveRedirectBase returns the scheme and host redirects are built on.
// Outside development a forwarded host from the proxy wins and is always
// served over HTTPS. Malformed forwarded hosts are ignored.
func ResolveRedirectBase(origin, forwardedHost string, development bool) string {
	origin = strings.TrimRight(origin, "/")
	if development {
		return origin
	}
	host := strings.TrimSpace(strings.Split(forwardedHost, ",")[0])
	if host == "" || strings.ContainsAny(host, "/\\@ \t") {
		return origin
	}
	return "https://" + host
}

package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"churchsite/internal/idp"
)

// MockProvider is a mock implementation of idp.Provider.
type MockProvider struct {
	mock.Mock
}

var _ idp.Provider = (*MockProvider)(nil)

func (m *MockProvider) RequestOneTimeLink(ctx context.Context, email, redirectURL, codeChallenge string) error {
	args := m.Called(ctx, email, redirectURL, codeChallenge)
	return args.Error(0)
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*idp.Session, error) {
	args := m.Called(ctx, code, codeVerifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Session), args.Error(1)
}

func (m *MockProvider) VerifyTokenHash(ctx context.Context, tokenHash string, otpType idp.OTPType) (*idp.Session, error) {
	args := m.Called(ctx, tokenHash, otpType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Session), args.Error(1)
}

func (m *MockProvider) RefreshSession(ctx context.Context, refreshToken string) (*idp.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Session), args.Error(1)
}

func (m *MockProvider) GetUser(ctx context.Context, accessToken string) (*idp.Principal, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Principal), args.Error(1)
}

func (m *MockProvider) UpdateUserMetadata(ctx context.Context, accessToken string, data map[string]any) (*idp.Principal, error) {
	args := m.Called(ctx, accessToken, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idp.Principal), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of auth.TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// MemoryTokenStore is an in-memory revocation list for tests.
type MemoryTokenStore struct {
	Revoked map[string]time.Duration
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{Revoked: make(map[string]time.Duration)}
}

func (s *MemoryTokenStore) RevokeSession(_ context.Context, sessionID string, ttl time.Duration) error {
	s.Revoked[sessionID] = ttl
	return nil
}

func (s *MemoryTokenStore) IsSessionRevoked(_ context.Context, sessionID string) (bool, error) {
	_, ok := s.Revoked[sessionID]
	return ok, nil
}

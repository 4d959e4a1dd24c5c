// Package authstate keeps the signed-in principal and its resolved display
// name in sync with session changes for one browser session.
package authstate

import (
	"context"
	"strings"
	"sync"

	"churchsite/internal/auth"
	"churchsite/internal/idp"
	"churchsite/internal/model"
)

// SessionSource is the session the store follows.
type SessionSource interface {
	CurrentPrincipal(ctx context.Context) (*idp.Principal, error)
	OnSessionChange(fn func(auth.SessionChange)) func()
	SignOut(ctx context.Context) error
}

var _ SessionSource = (*auth.RequestSession)(nil)

// MemberFinder resolves display names for principals without metadata.
type MemberFinder interface {
	FindActiveByEmail(ctx context.Context, email string) (*model.Member, error)
}

// Snapshot is a consistent view of the store.
type Snapshot struct {
	Principal   *idp.Principal
	Loading     bool
	DisplayName string
}

// FirstName returns the first word of the display name, or "".
func (s Snapshot) FirstName() string {
	return model.FirstName(s.DisplayName)
}

// Store caches {principal, loading, displayName}. The zero value is not
// usable; build one with New.
type Store struct {
	session SessionSource
	members MemberFinder

	mu          sync.Mutex
	state       Snapshot
	seq         uint64
	ctx         context.Context
	unsubscribe func()
}

// New returns a store in the loading state.
func New(session SessionSource, members MemberFinder) *Store {
	return &Store{
		session: session,
		members: members,
		state:   Snapshot{Loading: true},
	}
}

// Mount resolves the current principal once and subscribes to session
// changes. Loading is false afterwards whatever the outcome. Mounting a
// mounted store only returns its state.
func (s *Store) Mount(ctx context.Context) Snapshot {
	s.mu.Lock()
	if s.unsubscribe != nil {
		state := s.state
		s.mu.Unlock()
		return state
	}
	s.ctx = context.WithoutCancel(ctx)
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	unsubscribe := s.session.OnSessionChange(s.handleChange)

	p, err := s.session.CurrentPrincipal(ctx)
	if err != nil {
		p = nil
	}
	name := s.resolveDisplayName(ctx, p)

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	if seq == s.seq {
		s.state = Snapshot{Principal: p, DisplayName: name}
	}
	s.state.Loading = false
	state := s.state
	s.mu.Unlock()
	return state
}

// Unmount stops following session changes. It is safe to call repeatedly.
func (s *Store) Unmount() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// SignOut clears the local state before asking the session to sign out, so
// readers see a signed-out store even if the provider call fails.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	s.state = Snapshot{}
	s.mu.Unlock()

	return s.session.SignOut(ctx)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Principal returns the cached principal, or nil.
func (s *Store) Principal() *idp.Principal {
	return s.Snapshot().Principal
}

// Loading reports whether the first resolution is still pending.
func (s *Store) Loading() bool {
	return s.Snapshot().Loading
}

// DisplayName returns the resolved display name, or "".
func (s *Store) DisplayName() string {
	return s.Snapshot().DisplayName
}

// FirstName returns the first word of the display name, or "".
func (s *Store) FirstName() string {
	return s.Snapshot().FirstName()
}

// handleChange re-resolves on every session change. Each change takes a
// sequence number and only the newest one is applied.
func (s *Store) handleChange(change auth.SessionChange) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	p := change.Principal
	if change.Event == auth.EventSignedOut {
		p = nil
	}
	name := s.resolveDisplayName(ctx, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return
	}
	s.state = Snapshot{Principal: p, DisplayName: name}
}

func (s *Store) resolveDisplayName(ctx context.Context, p *idp.Principal) string {
	if p == nil {
		return ""
	}
	if name := p.DisplayName(); name != "" {
		return name
	}
	if s.members == nil || p.Email == "" {
		return ""
	}
	member, err := s.members.FindActiveByEmail(ctx, p.Email)
	if err != nil || member == nil {
		return ""
	}
	return strings.TrimSpace(member.FullName)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"churchsite/internal/cache"
	apperrors "churchsite/internal/errors"
	"churchsite/internal/idp"
	"churchsite/internal/metrics"
	"churchsite/internal/model"
	"churchsite/internal/repository"
)

const (
	directoryCacheKey = "members:active"
	directoryCacheTTL = 30 * time.Second
)

// LookupResult is the public answer to a member lookup. Both fields are nil
// when no active member matches.
type LookupResult struct {
	FirstName *string `json:"firstName"`
	FullName  *string `json:"fullName"`
}

// MemberService exposes membership operations.
type MemberService interface {
	// Lookup never fails; misses and store errors both yield nulls.
	Lookup(ctx context.Context, email string) LookupResult
	// ResolveMember joins a principal to its active member by email.
	ResolveMember(ctx context.Context, p *idp.Principal) (*model.Member, error)
	// Directory lists active members by full name, filtered by query.
	Directory(ctx context.Context, query string) ([]model.Member, error)
	// InvalidateDirectory drops the cached directory listing.
	InvalidateDirectory(ctx context.Context)
}

type memberService struct {
	repo    repository.MemberRepository
	cache   *cache.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewMemberService builds a MemberService with repository and cache.
func NewMemberService(repo repository.MemberRepository, cache *cache.Client, m *metrics.Metrics, logger *zap.Logger) MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &memberService{repo: repo, cache: cache, metrics: m, logger: logger}
}

func (s *memberService) Lookup(ctx context.Context, email string) LookupResult {
	email = model.NormalizeEmail(email)
	if email == "" {
		s.metrics.MemberLookup("miss")
		return LookupResult{}
	}

	member, err := s.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.MemberLookup("miss")
		} else {
			s.metrics.MemberLookup("error")
			s.logger.Error("member lookup", zap.Error(err))
		}
		return LookupResult{}
	}

	s.metrics.MemberLookup("hit")
	first := member.FirstName()
	full := member.FullName
	return LookupResult{FirstName: &first, FullName: &full}
}

func (s *memberService) ResolveMember(ctx context.Context, p *idp.Principal) (*model.Member, error) {
	if p == nil || p.Email == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	member, err := s.repo.FindActiveByEmail(ctx, p.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotRegisteredMember
	}
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	return member, nil
}

func (s *memberService) Directory(ctx context.Context, query string) ([]model.Member, error) {
	members, err := s.activeMembers(ctx)
	if err != nil {
		return nil, err
	}
	return FilterMembers(members, query), nil
}

func (s *memberService) activeMembers(ctx context.Context) ([]model.Member, error) {
	if data, _ := s.cache.Get(ctx, directoryCacheKey); data != nil {
		var cached []model.Member
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	members, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	if payload, err := json.Marshal(members); err == nil {
		_ = s.cache.Set(ctx, directoryCacheKey, payload, directoryCacheTTL)
	}
	return members, nil
}

func (s *memberService) InvalidateDirectory(ctx context.Context) {
	_ = s.cache.Delete(ctx, directoryCacheKey)
}

// FilterMembers keeps members whose name or email contains query, ignoring
// case, or whose phone contains it verbatim. A blank query keeps everyone.
func FilterMembers(members []model.Member, query string) []model.Member {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return members
	}

	out := make([]model.Member, 0, len(members))
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.FullName), q) ||
			strings.Contains(strings.ToLower(m.Email), q) ||
			(m.Phone != nil && strings.Contains(*m.Phone, q)) {
			out = append(out, m)
		}
	}
	return out
}

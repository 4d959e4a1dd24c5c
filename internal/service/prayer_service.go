package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "churchsite/internal/errors"
	"churchsite/internal/model"
	"churchsite/internal/repository"
)

// MaxPrayerBodyLength is the longest accepted prayer request, in characters.
const MaxPrayerBodyLength = 2000

// PrayerRequestView is a prayer request as shown to one viewer.
type PrayerRequestView struct {
	ID          uuid.UUID        `json:"id"`
	AuthorName  string           `json:"author_name"`
	Initials    string           `json:"initials"`
	Accent      int              `json:"accent"`
	Body        string           `json:"body"`
	Visibility  model.Visibility `json:"visibility"`
	PastorsOnly bool             `json:"pastors_only"`
	IsOwn       bool             `json:"is_own"`
	CreatedAt   time.Time        `json:"created_at"`
	Age         string           `json:"age"`
}

// PrayerService exposes prayer request operations scoped to a member.
type PrayerService interface {
	List(ctx context.Context, viewer *model.Member) ([]PrayerRequestView, error)
	Submit(ctx context.Context, author *model.Member, body string, visibility model.Visibility) (*model.PrayerRequest, error)
	Delete(ctx context.Context, requester *model.Member, id uuid.UUID) error
}

type prayerService struct {
	repo repository.PrayerRequestRepository
	now  func() time.Time
}

// NewPrayerService creates a new prayer request service.
func NewPrayerService(repo repository.PrayerRequestRepository) PrayerService {
	return &prayerService{repo: repo, now: time.Now}
}

// List returns active requests newest first. Pastors-only requests are left
// out unless the viewer wrote them or is a pastor.
func (s *prayerService) List(ctx context.Context, viewer *model.Member) ([]PrayerRequestView, error) {
	if viewer == nil {
		return nil, apperrors.ErrNotRegisteredMember
	}

	requests, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prayer requests: %w", err)
	}

	now := s.now()
	views := make([]PrayerRequestView, 0, len(requests))
	for i := range requests {
		r := &requests[i]
		if !r.VisibleTo(viewer) {
			continue
		}
		views = append(views, PrayerRequestView{
			ID:          r.ID,
			AuthorName:  r.Member.FullName,
			Initials:    Initials(r.Member.FullName),
			Accent:      AccentIndex(r.Member.FullName),
			Body:        r.Body,
			Visibility:  r.Visibility,
			PastorsOnly: r.Visibility == model.VisibilityPastorsOnly,
			IsOwn:       r.MemberID == viewer.ID,
			CreatedAt:   r.CreatedAt,
			Age:         TimeAgo(r.CreatedAt, now),
		})
	}
	return views, nil
}

// Submit stores a request owned by author. Any member id supplied by the
// client is ignored.
func (s *prayerService) Submit(ctx context.Context, author *model.Member, body string, visibility model.Visibility) (*model.PrayerRequest, error) {
	if author == nil {
		return nil, apperrors.ErrNotRegisteredMember
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.ErrEmptyPrayerBody
	}
	if utf8.RuneCountInString(body) > MaxPrayerBodyLength {
		return nil, apperrors.ErrPrayerBodyTooLong
	}
	if visibility == "" {
		visibility = model.VisibilityAllMembers
	}
	if !visibility.Valid() {
		return nil, apperrors.ErrInvalidVisibility
	}

	request := &model.PrayerRequest{
		MemberID:   author.ID,
		Body:       body,
		Visibility: visibility,
		IsActive:   true,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create prayer request: %w", err)
	}
	request.Member = *author
	return request, nil
}

// Delete soft deletes a request owned by requester.
func (s *prayerService) Delete(ctx context.Context, requester *model.Member, id uuid.UUID) error {
	if requester == nil {
		return apperrors.ErrNotRegisteredMember
	}

	request, err := s.repo.FindActiveByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrPrayerRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("find prayer request: %w", err)
	}
	if request.MemberID != requester.ID {
		return apperrors.ErrNotRequestOwner
	}

	changed, err := s.repo.Deactivate(ctx, id, requester.ID)
	if err != nil {
		return fmt.Errorf("deactivate prayer request: %w", err)
	}
	if !changed {
		return apperrors.ErrPrayerRequestNotFound
	}
	return nil
}

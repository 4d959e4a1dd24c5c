package repository

import (
	"context"

	"gorm.io/gorm"

	"churchsite/internal/model"
)

// MemberRepository defines member persistence operations.
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	Update(ctx context.Context, member *model.Member) error
	FindByEmail(ctx context.Context, email string) (*model.Member, error)
	FindActiveByEmail(ctx context.Context, email string) (*model.Member, error)
	ListActive(ctx context.Context) ([]model.Member, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository builds a GORM-backed repository.
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepository) Update(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// FindByEmail finds a member by normalized email regardless of activity.
func (r *memberRepository) FindByEmail(ctx context.Context, email string) (*model.Member, error) {
	var member model.Member
	if err := r.db.WithContext(ctx).
		Where("email = ?", model.NormalizeEmail(email)).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindActiveByEmail finds an active member by normalized email.
func (r *memberRepository) FindActiveByEmail(ctx context.Context, email string) (*model.Member, error) {
	var member model.Member
	if err := r.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", model.NormalizeEmail(email), true).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListActive lists all active members ordered by full name.
func (r *memberRepository) ListActive(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("full_name").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

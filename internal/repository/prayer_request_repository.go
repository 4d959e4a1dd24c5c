package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"churchsite/internal/model"
)

// PrayerRequestRepository defines prayer request persistence operations.
type PrayerRequestRepository interface {
	Create(ctx context.Context, request *model.PrayerRequest) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.PrayerRequest, error)
	ListActive(ctx context.Context) ([]model.PrayerRequest, error)
	Deactivate(ctx context.Context, id, memberID uuid.UUID) (bool, error)
}

type prayerRequestRepository struct {
	db *gorm.DB
}

// NewPrayerRequestRepository creates a new prayer request repository.
func NewPrayerRequestRepository(db *gorm.DB) PrayerRequestRepository {
	return &prayerRequestRepository{db: db}
}

// Create inserts a request without touching the associated member row.
func (r *prayerRequestRepository) Create(ctx context.Context, request *model.PrayerRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(request).Error
}

// FindActiveByID finds an active request by ID.
func (r *prayerRequestRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.PrayerRequest, error) {
	var request model.PrayerRequest
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ListActive lists active requests newest first, with their authors.
func (r *prayerRequestRepository) ListActive(ctx context.Context) ([]model.PrayerRequest, error) {
	var requests []model.PrayerRequest
	if err := r.db.WithContext(ctx).
		Preload("Member").
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Deactivate soft deletes an active request owned by memberID. It reports
// whether a row was changed.
func (r *prayerRequestRepository) Deactivate(ctx context.Context, id, memberID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PrayerRequest{}).
		Where("id = ? AND member_id = ? AND is_active = ?", id, memberID, true).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

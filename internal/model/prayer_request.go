package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visibility controls who may read a prayer request.
type Visibility string

const (
	VisibilityAllMembers  Visibility = "all_members"
	VisibilityPastorsOnly Visibility = "pastors_only"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityAllMembers || v == VisibilityPastorsOnly
}

// PrayerRequest is a member's prayer request. Removal is a soft delete
// through IsActive.
type PrayerRequest struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	MemberID   uuid.UUID  `json:"member_id" gorm:"type:char(36);not null;index"`
	Body       string     `json:"body" gorm:"type:text;not null"`
	Visibility Visibility `json:"visibility" gorm:"type:varchar(20);not null"`
	IsActive   bool       `json:"is_active" gorm:"column:is_active;not null;index"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`

	// Relations
	Member Member `json:"member" gorm:"foreignKey:MemberID"`
}

// BeforeCreate sets UUID and default visibility before creating the record.
func (p *PrayerRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityAllMembers
	}
	return nil
}

// VisibleTo reports whether viewer may read the request in full. Pastors-only
// requests are readable by their author and by pastors.
func (p *PrayerRequest) VisibleTo(viewer *Member) bool {
	if viewer == nil {
		return false
	}
	if p.Visibility != VisibilityPastorsOnly {
		return true
	}
	return p.MemberID == viewer.ID || viewer.IsPastor()
}

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a member's role in the church.
type Role string

const (
	RoleMember Role = "member"
	RolePastor Role = "pastor"
)

// Member represents a church membership record, keyed by email.
type Member struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	FullName  string    `json:"full_name" gorm:"column:full_name;size:255;not null;index"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone     *string   `json:"phone" gorm:"size:50"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;not null;index"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID and normalizes email and role before creating the record.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	m.Email = NormalizeEmail(m.Email)
	return nil
}

// IsPastor reports whether the member holds the pastor role.
func (m *Member) IsPastor() bool {
	return m != nil && m.Role == RolePastor
}

// FirstName returns the first word of the full name.
func (m *Member) FirstName() string {
	return FirstName(m.FullName)
}

// FirstName returns the first whitespace separated word of name, or "".
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NormalizeEmail lowercases and trims an email address. Principals and
// members are joined on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "x@example.com", NormalizeEmail("  X@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Grace", FirstName("Grace  Hopper"))
	assert.Equal(t, "Cher", FirstName("Cher"))
	assert.Equal(t, "", FirstName(""))
}

func TestPrayerRequest_VisibleTo(t *testing.T) {
	author := &Member{ID: uuid.New(), Role: RoleMember}
	other := &Member{ID: uuid.New(), Role: RoleMember}
	pastor := &Member{ID: uuid.New(), Role: RolePastor}

	private := &PrayerRequest{MemberID: author.ID, Visibility: VisibilityPastorsOnly}
	public := &PrayerRequest{MemberID: author.ID, Visibility: VisibilityAllMembers}

	assert.True(t, private.VisibleTo(author))
	assert.True(t, private.VisibleTo(pastor))
	assert.False(t, private.VisibleTo(other))
	assert.False(t, private.VisibleTo(nil))

	assert.True(t, public.VisibleTo(other))
	assert.True(t, public.VisibleTo(pastor))
}

func TestVisibility_Valid(t *testing.T) {
	assert.True(t, VisibilityAllMembers.Valid())
	assert.True(t, VisibilityPastorsOnly.Valid())
	assert.False(t, Visibility("everyone").Valid())
	assert.False(t, Visibility("").Valid())
}

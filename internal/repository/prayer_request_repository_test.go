package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"churchsite/internal/model"
	"churchsite/internal/testutil"
)

func TestPrayerRequestRepository_CreateAndList(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPrayerRequestRepository(db)
	ctx := context.Background()

	author := testutil.SeedMember(t, db, "Hannah Ramah", "hannah@example.com", model.RoleMember, true)

	older := &model.PrayerRequest{MemberID: author.ID, Body: "first", IsActive: true, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &model.PrayerRequest{MemberID: author.ID, Body: "second", Visibility: model.VisibilityPastorsOnly, IsActive: true}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.Equal(t, model.VisibilityAllMembers, older.Visibility)

	list, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Body)
	assert.Equal(t, "Hannah Ramah", list[0].Member.FullName)
	assert.Equal(t, "first", list[1].Body)
}

func TestPrayerRequestRepository_Deactivate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPrayerRequestRepository(db)
	ctx := context.Background()

	owner := testutil.SeedMember(t, db, "Owner One", "owner@example.com", model.RoleMember, true)
	other := testutil.SeedMember(t, db, "Other Two", "other@example.com", model.RoleMember, true)

	req := &model.PrayerRequest{MemberID: owner.ID, Body: "please pray", IsActive: true}
	require.NoError(t, repo.Create(ctx, req))

	changed, err := repo.Deactivate(ctx, req.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.Deactivate(ctx, req.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = repo.FindActiveByID(ctx, req.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// row persists with is_active=false
	var stored model.PrayerRequest
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.False(t, stored.IsActive)

	changed, err = repo.Deactivate(ctx, uuid.New(), owner.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

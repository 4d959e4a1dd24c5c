package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"churchsite/internal/cache"
)

func TestTokenStore_NilCacheNeverRevoked(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	assert.NoError(t, store.RevokeSession(ctx, "sess-1", time.Minute))
	revoked, err := store.IsSessionRevoked(ctx, "sess-1")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenStore_IgnoresEmptyInput(t *testing.T) {
	store := NewTokenStore(&cache.Client{})
	ctx := context.Background()

	assert.NoError(t, store.RevokeSession(ctx, "", time.Minute))
	assert.NoError(t, store.RevokeSession(ctx, "sess-1", 0))
	revoked, err := store.IsSessionRevoked(ctx, "")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

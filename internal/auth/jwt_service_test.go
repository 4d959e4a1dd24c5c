package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchsite/internal/idp"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	p := &idp.Principal{ID: "user-1", Email: "ruth@example.com", UserMetadata: map[string]any{"full_name": "Ruth Moab"}}

	token, err := svc.GenerateAccessToken(p, "sess-1", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.RevocationKey())

	got := claims.Principal()
	assert.Equal(t, "user-1", got.ID)
	assert.Equal(t, "ruth@example.com", got.Email)
	assert.Equal(t, "Ruth Moab", got.DisplayName())
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret")
	p := &idp.Principal{ID: "user-1", Email: "ruth@example.com"}

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(p, "", -time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, IsExpired(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTService("other-secret").GenerateAccessToken(p, "", time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
		assert.False(t, IsExpired(err))
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(&idp.Principal{Email: "x@example.com"}, "", time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		})
		token, err := raw.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestClaims_RevocationKeyFallsBackToJTI(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"}}
	assert.Equal(t, "jti-1", c.RevocationKey())
}

func TestJWTService_EmptySecretRejectsEverything(t *testing.T) {
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: "ruth@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok, err := forged.SignedString([]byte("change-me"))
	require.NoError(t, err)

	svc := NewJWTService("")
	_, err = svc.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrNoSigningSecret)

	_, err = svc.GenerateAccessToken(&idp.Principal{ID: "user-1"}, "sess-1", time.Hour)
	assert.ErrorIs(t, err, ErrNoSigningSecret)
}

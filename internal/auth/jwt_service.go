package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"churchsite/internal/idp"
)

// clockSkew tolerates small clock differences with the provider.
const clockSkew = 30 * time.Second

// Claims represents the access token claims issued by the identity provider.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the authenticated principal.
func (c *Claims) Principal() *idp.Principal {
	return &idp.Principal{
		ID:           c.Subject,
		Email:        c.Email,
		UserMetadata: c.UserMetadata,
	}
}

// RevocationKey identifies the provider session the token belongs to.
func (c *Claims) RevocationKey() string {
	if c.SessionID != "" {
		return c.SessionID
	}
	return c.ID
}

// ErrNoSigningSecret is returned when the service has no secret; every token
// is rejected rather than verified against an empty key.
var ErrNoSigningSecret = errors.New("no token signing secret configured")

// JWTService verifies provider-issued access tokens.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the provider's signing secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		if len(s.secret) == 0 {
			return nil, ErrNoSigningSecret
		}
		return s.secret, nil
	}, jwt.WithLeeway(clockSkew), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// GenerateAccessToken signs an access token the way the provider does. The
// service only verifies tokens in production; local tooling and tests mint
// them here.
func (s *JWTService) GenerateAccessToken(p *idp.Principal, sessionID string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSigningSecret
	}
	now := time.Now()
	claims := &Claims{
		Email:        p.Email,
		Role:         "authenticated",
		SessionID:    sessionID,
		UserMetadata: p.UserMetadata,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

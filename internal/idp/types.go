package idp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// OTPType is the kind of one-time token carried by a token-hash link.
type OTPType string

const (
	OTPMagicLink OTPType = "magiclink"
	OTPEmail     OTPType = "email"
)

// Valid reports whether t can complete a login.
func (t OTPType) Valid() bool {
	return t == OTPMagicLink || t == OTPEmail
}

// MetadataDisplayName is the user metadata key holding the display name.
const MetadataDisplayName = "full_name"

// Principal is an authenticated identity as known to the provider.
type Principal struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// DisplayName returns the cached display name from metadata, or "".
func (p *Principal) DisplayName() string {
	if p == nil || p.UserMetadata == nil {
		return ""
	}
	name, _ := p.UserMetadata[MetadataDisplayName].(string)
	return strings.TrimSpace(name)
}

// Session is the token pair issued by the provider.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         *Principal `json:"user"`
}

// ErrNoSession is returned when a provider response carries no usable session.
var ErrNoSession = errors.New("provider returned no session")

// Error is a non-2xx response from the provider.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("identity provider: %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the call may succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// StatusCode returns the provider status carried by err, or 0.
func StatusCode(err error) int {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.StatusCode
	}
	return 0
}

package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Provider is the contract this service needs from the hosted identity provider.
type Provider interface {
	RequestOneTimeLink(ctx context.Context, email, redirectURL, codeChallenge string) error
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*Session, error)
	VerifyTokenHash(ctx context.Context, tokenHash string, otpType OTPType) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*Principal, error)
	UpdateUserMetadata(ctx context.Context, accessToken string, data map[string]any) (*Principal, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Client talks to a GoTrue compatible auth REST API.
type Client struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
	// MaxRetries bounds retries of session refresh on transient failures.
	MaxRetries uint64
}

var _ Provider = (*Client)(nil)

// NewClient creates a provider client whose calls are bounded by timeout.
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AnonKey:    anonKey,
		HTTPClient: &http.Client{Timeout: timeout},
		MaxRetries: 2,
	}
}

type otpRequest struct {
	Email               string `json:"email"`
	CreateUser          bool   `json:"create_user"`
	CodeChallenge       string `json:"code_challenge,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
}

// RequestOneTimeLink asks the provider to email a single-use sign-in link
// that returns to redirectURL. Unknown emails are not signed up.
func (c *Client) RequestOneTimeLink(ctx context.Context, email, redirectURL, codeChallenge string) error {
	body := otpRequest{Email: email, CreateUser: false}
	if codeChallenge != "" {
		body.CodeChallenge = codeChallenge
		body.CodeChallengeMethod = "s256"
	}
	query := url.Values{}
	if redirectURL != "" {
		query.Set("redirect_to", redirectURL)
	}
	return c.do(ctx, http.MethodPost, "/auth/v1/otp", query, "", body, nil)
}

// ExchangeCode completes a same-browser (PKCE) login.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Session, error) {
	body := map[string]string{"auth_code": code, "code_verifier": codeVerifier}
	return c.session(ctx, "/auth/v1/token", url.Values{"grant_type": {"pkce"}}, body)
}

// VerifyTokenHash completes a cross-browser login from a token hash.
func (c *Client) VerifyTokenHash(ctx context.Context, tokenHash string, otpType OTPType) (*Session, error) {
	if !otpType.Valid() {
		return nil, &Error{StatusCode: http.StatusBadRequest, Code: "invalid_otp_type", Message: string(otpType)}
	}
	body := map[string]string{"token_hash": tokenHash, "type": string(otpType)}
	return c.session(ctx, "/auth/v1/verify", nil, body)
}

// RefreshSession rotates the token pair. Transport errors and 5xx responses
// are retried with exponential backoff.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var sess *Session
	op := func() error {
		s, err := c.session(ctx, "/auth/v1/token", url.Values{"grant_type": {"refresh_token"}}, body)
		if err != nil {
			var perr *Error
			if errors.As(err, &perr) && !perr.Temporary() {
				return backoff.Permanent(err)
			}
			if errors.Is(err, ErrNoSession) {
				return backoff.Permanent(err)
			}
			return err
		}
		sess = s
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.MaxRetries), ctx)); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetUser returns the principal owning accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*Principal, error) {
	var p Principal
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateUserMetadata merges data into the principal's user metadata.
func (c *Client) UpdateUserMetadata(ctx context.Context, accessToken string, data map[string]any) (*Principal, error) {
	var p Principal
	body := map[string]any{"data": data}
	if err := c.do(ctx, http.MethodPut, "/auth/v1/user", nil, accessToken, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SignOut revokes the session behind accessToken. A session the provider no
// longer knows counts as signed out.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil, nil)
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil
	}
	return err
}

func (c *Client) session(ctx context.Context, path string, query url.Values, body any) (*Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodPost, path, query, "", body, &sess); err != nil {
		return nil, err
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return &sess, nil
}

type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, body, out any) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.AnonKey)
	if bearer == "" {
		bearer = c.AnonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) *Error {
	perr := &Error{StatusCode: status, Message: http.StatusText(status)}
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return perr
	}
	switch {
	case eb.ErrorCode != "":
		perr.Code = eb.ErrorCode
	case eb.Error != "":
		perr.Code = eb.Error
	}
	for _, msg := range []string{eb.Msg, eb.Message, eb.ErrorDescription} {
		if msg != "" {
			perr.Message = msg
			break
		}
	}
	return perr
}

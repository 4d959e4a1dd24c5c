package idp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "anon-key", 2*time.Second)
}

func sessionJSON(email string) map[string]any {
	return map[string]any{
		"access_token":  "access",
		"refresh_token": "refresh",
		"token_type":    "bearer",
		"expires_in":    3600,
		"user":          map[string]any{"id": "user-1", "email": email},
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient("https://auth.example.org/", "key", 3*time.Second)
	assert.Equal(t, "https://auth.example.org", c.BaseURL)
	assert.Equal(t, 3*time.Second, c.HTTPClient.Timeout)
}

func TestClient_RequestOneTimeLink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/otp", r.URL.Path)
		assert.Equal(t, "https://church.example.org/auth/callback", r.URL.Query().Get("redirect_to"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ruth@example.com", body["email"])
		assert.Equal(t, false, body["create_user"])
		assert.Equal(t, "challenge", body["code_challenge"])
		assert.Equal(t, "s256", body["code_challenge_method"])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	err := c.RequestOneTimeLink(context.Background(), "ruth@example.com", "https://church.example.org/auth/callback", "challenge")
	assert.NoError(t, err)
}

func TestClient_ExchangeCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["auth_code"] != "good" || body["code_verifier"] != "verifier" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":400,"error_code":"bad_code_verifier","msg":"code challenge does not match"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(sessionJSON("ruth@example.com"))
	})

	sess, err := c.ExchangeCode(context.Background(), "good", "verifier")
	require.NoError(t, err)
	assert.Equal(t, "access", sess.AccessToken)
	assert.Equal(t, "ruth@example.com", sess.User.Email)

	_, err = c.ExchangeCode(context.Background(), "bad", "verifier")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.Equal(t, "bad_code_verifier", perr.Code)
	assert.Equal(t, "code challenge does not match", perr.Message)
}

func TestClient_VerifyTokenHash(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/verify", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "magiclink", body["type"])
		_ = json.NewEncoder(w).Encode(sessionJSON("ruth@example.com"))
	})

	sess, err := c.VerifyTokenHash(context.Background(), "hash", OTPMagicLink)
	require.NoError(t, err)
	assert.Equal(t, "refresh", sess.RefreshToken)

	_, err = c.VerifyTokenHash(context.Background(), "hash", OTPType("recovery"))
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestClient_RefreshSession_RetriesTransientFailures(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(sessionJSON("ruth@example.com"))
	})

	sess, err := c.RefreshSession(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "access", sess.AccessToken)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_RefreshSession_DoesNotRetryRejectedToken(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
	})

	_, err := c.RefreshSession(context.Background(), "stale")
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_SignOut_Idempotent(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	assert.NoError(t, c.SignOut(context.Background(), "user-token"))
	assert.NoError(t, c.SignOut(context.Background(), "user-token"))
}

func TestClient_UpdateUserMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "user-1",
			"email":         "ruth@example.com",
			"user_metadata": body["data"],
		})
	})

	p, err := c.UpdateUserMetadata(context.Background(), "token", map[string]any{MetadataDisplayName: "Ruth Moab"})
	require.NoError(t, err)
	assert.Equal(t, "Ruth Moab", p.DisplayName())
}

func TestClient_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c.HTTPClient.Timeout = 20 * time.Millisecond

	_, err := c.GetUser(context.Background(), "token")
	assert.Error(t, err)
}

func TestPrincipal_DisplayName(t *testing.T) {
	var nilPrincipal *Principal
	assert.Equal(t, "", nilPrincipal.DisplayName())
	assert.Equal(t, "", (&Principal{}).DisplayName())
	assert.Equal(t, "Ruth", (&Principal{UserMetadata: map[string]any{"full_name": " Ruth "}}).DisplayName())
	assert.Equal(t, "", (&Principal{UserMetadata: map[string]any{"full_name": 42}}).DisplayName())
}

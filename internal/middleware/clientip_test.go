package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func realIP(t *testing.T, extractor echo.IPExtractor, remoteAddr string, headers map[string]string) string {
	t.Helper()
	e := echo.New()
	e.IPExtractor = extractor

	req := httptest.NewRequest(http.MethodPost, "/api/member-lookup", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.NewContext(req, httptest.NewRecorder()).RealIP()
}

func TestClientIPExtractor_DirectIgnoresForwardingHeaders(t *testing.T) {
	extractor, err := ClientIPExtractor(nil)
	require.NoError(t, err)

	got := realIP(t, extractor, "203.0.113.9:52100", map[string]string{
		echo.HeaderXForwardedFor: "10.0.0.7",
		echo.HeaderXRealIP:       "10.0.0.8",
	})
	assert.Equal(t, "203.0.113.9", got)
}

func TestClientIPExtractor_TrustedProxies(t *testing.T) {
	extractor, err := ClientIPExtractor([]string{"10.1.0.0/16"})
	require.NoError(t, err)

	viaProxy := realIP(t, extractor, "10.1.2.3:443", map[string]string{
		echo.HeaderXForwardedFor: "198.51.100.7",
	})
	assert.Equal(t, "198.51.100.7", viaProxy)

	spoofed := realIP(t, extractor, "203.0.113.9:52100", map[string]string{
		echo.HeaderXForwardedFor: "198.51.100.7",
	})
	assert.Equal(t, "203.0.113.9", spoofed)

	privatePeer := realIP(t, extractor, "192.168.1.20:52100", map[string]string{
		echo.HeaderXForwardedFor: "198.51.100.7",
	})
	assert.Equal(t, "192.168.1.20", privatePeer)
}

func TestClientIPExtractor_InvalidRange(t *testing.T) {
	_, err := ClientIPExtractor([]string{"10.0.0.1"})
	assert.Error(t, err)
}

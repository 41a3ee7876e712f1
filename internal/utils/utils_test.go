package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newContext(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	req.RemoteAddr = "10.100.0.7:51234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"public X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"private X-Real-IP falls through", map[string]string{"X-Real-IP": "10.0.0.1", "X-Forwarded-For": "198.51.100.4"}, "198.51.100.4"},
		{"first public forwarded", map[string]string{"X-Forwarded-For": "192.168.1.2, 198.51.100.4, 203.0.113.9"}, "198.51.100.4"},
		{"only private forwarded", map[string]string{"X-Forwarded-For": "garbage, 192.168.1.2, 10.0.0.3"}, "192.168.1.2"},
		{"no headers", nil, "10.100.0.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetRealIP(newContext(tt.headers)))
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	t.Run("iPhone", func(t *testing.T) {
		source := ParseUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1")
		assert.Equal(t, "mobile", source.DeviceType)
		assert.Contains(t, source.Browser, "Safari")
	})

	t.Run("iPad", func(t *testing.T) {
		source := ParseUserAgent("Mozilla/5.0 (iPad; CPU OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1")
		assert.Equal(t, "tablet", source.DeviceType)
	})

	t.Run("desktop Chrome", func(t *testing.T) {
		source := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
		assert.Equal(t, "desktop", source.DeviceType)
		assert.Contains(t, source.Browser, "Chrome")
		assert.Contains(t, source.OS, "Windows")
	})

	t.Run("empty", func(t *testing.T) {
		source := ParseUserAgent("")
		assert.Equal(t, "unknown", source.DeviceType)
		assert.Equal(t, "Unknown", source.Browser)
	})
}

func TestSubmissionSourceFromRequest(t *testing.T) {
	c := newContext(map[string]string{
		"X-Forwarded-For": "203.0.113.9",
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	})

	source := SubmissionSourceFromRequest(c)
	require.NotNil(t, source)
	assert.Equal(t, "203.0.113.9", source.IP)
	assert.Equal(t, "desktop", source.DeviceType)
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(32)
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	other, err := GenerateSecret(32)
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse battery")))

	_, err = HashPassword("short")
	assert.Error(t, err)
}

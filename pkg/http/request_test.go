package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_RemoteAddrOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/request-code", nil)
	req.RemoteAddr = "203.0.113.10:51234"

	ip := ExtractClientIP(req, nil)
	assert.Equal(t, "203.0.113.10", ip)
}

func TestExtractClientIP_ForwardedHeaderIgnoredFromUntrustedSource(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/request-code", nil)
	req.RemoteAddr = "203.0.113.10:51234"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")

	ip := ExtractClientIP(req, &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})
	assert.Equal(t, "203.0.113.10", ip, "forwarded header from an untrusted peer must not win")
}

func TestExtractClientIP_ForwardedHeaderFromTrustedProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/request-code", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.1.2.3")

	ip := ExtractClientIP(req, &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})
	assert.Equal(t, "198.51.100.7", ip)
}

func TestExtractClientIP_RealIPFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/request-code", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Real-IP", "198.51.100.9")

	ip := ExtractClientIP(req, &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})
	assert.Equal(t, "198.51.100.9", ip)
}

func TestExtractClientIP_InvalidForwardedValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/request-code", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "not-an-ip, also-bad")

	ip := ExtractClientIP(req, &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})
	assert.Equal(t, "10.1.2.3", ip)
}

package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	middleware := Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 31536000, HSTSIncludeSubdomains: true}
	handler := middleware.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	headers := rr.Result().Header
	require.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	require.Contains(t, headers.Get("Content-Security-Policy"), "default-src 'none'")
	require.Equal(t, "max-age=31536000; includeSubDomains", headers.Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsHSTSOverPlainHTTP(t *testing.T) {
	middleware := Headers{Enable: true, EnableHSTS: true}
	handler := middleware.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	middleware := Headers{Enable: false, EnableHSTS: true}
	handler := middleware.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}

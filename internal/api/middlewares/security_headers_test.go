package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/aashish4533/bloombook/internal/api/middlewares"
)

func TestSecurityHeaders(t *testing.T) {
	wrapped := mw.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}
}

func TestSecurityHeadersHSTSBehindProxy(t *testing.T) {
	wrapped := mw.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS for https via proxy")
	}
}

func TestSecurityHeadersCachePolicy(t *testing.T) {
	wrapped := mw.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tests := []struct {
		method, path, auth, want string
	}{
		{http.MethodGet, "/listings/dune", "", "public, max-age=30"},
		{http.MethodGet, "/community/posts", "", "public, max-age=30"},
		{http.MethodGet, "/community/posts/p1/comments", "", "public, max-age=30"},
		{http.MethodGet, "/listings/wizard/sell", "", "no-store"},
		{http.MethodGet, "/listings/dune", "Bearer x", "no-store"},
		{http.MethodDelete, "/listings/dune", "", "no-store"},
		{http.MethodGet, "/healthz", "", "no-store"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.auth != "" {
			req.Header.Set("Authorization", tt.auth)
		}
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if got := rec.Header().Get("Cache-Control"); got != tt.want {
			t.Errorf("%s %s: Cache-Control = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}

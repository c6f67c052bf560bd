package middlewares_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mw "github.com/aashish4533/bloombook/internal/api/middlewares"
)

func readAll(w http.ResponseWriter, r *http.Request) {
	if _, err := io.ReadAll(r.Body); err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func TestBodySizeLimit(t *testing.T) {
	h := mw.BodySizeLimit(16)(http.HandlerFunc(readAll))

	tests := []struct {
		name   string
		method string
		body   io.Reader
		want   int
	}{
		{"small post", http.MethodPost, strings.NewReader(`{"title":"x"}`), http.StatusOK},
		{"declared length too big", http.MethodPost, bytes.NewReader(bytes.Repeat([]byte("a"), 64)), http.StatusRequestEntityTooLarge},
		{"delete is limited too", http.MethodDelete, bytes.NewReader(bytes.Repeat([]byte("a"), 64)), http.StatusRequestEntityTooLarge},
		{"get is not limited", http.MethodGet, bytes.NewReader(bytes.Repeat([]byte("a"), 64)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/listings/wizard/sell/next", tt.body))
			if rec.Code != tt.want {
				t.Fatalf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBodySizeLimitStreamingBody(t *testing.T) {
	h := mw.BodySizeLimit(16)(http.HandlerFunc(readAll))
	req := httptest.NewRequest(http.MethodPost, "/community/posts", io.NopCloser(strings.NewReader(strings.Repeat("b", 64))))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestBodyLimitFromEnv(t *testing.T) {
	t.Setenv("MAX_BODY_SIZE", "")
	if got := mw.BodyLimitFromEnv(); got != mw.DefaultMaxBody {
		t.Fatalf("default = %d", got)
	}
	t.Setenv("MAX_BODY_SIZE", "2048")
	if got := mw.BodyLimitFromEnv(); got != 2048 {
		t.Fatalf("env = %d", got)
	}
}

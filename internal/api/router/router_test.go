package router_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aashish4533/bloombook/internal/api/handlers/community"
	"github.com/aashish4533/bloombook/internal/api/handlers/listings"
	wizardhttp "github.com/aashish4533/bloombook/internal/api/handlers/wizard"
	"github.com/aashish4533/bloombook/internal/api/router"
	"github.com/aashish4533/bloombook/internal/auth"
	"github.com/aashish4533/bloombook/internal/metrics"
	"github.com/aashish4533/bloombook/internal/store/drafts"
)

type noUsers struct{}

func (noUsers) TokenVersion(context.Context, string) (int, error) {
	return 0, errors.New("no users")
}

func newRouter() http.Handler {
	return router.Router(router.Deps{
		Users:     noUsers{},
		Auth:      auth.New(nil, nil, nil),
		Wizard:    wizardhttp.New(drafts.NewMemory(), nil, nil, nil),
		Listings:  &listings.Handler{},
		Community: &community.Handler{},
		Metrics:   metrics.New(),
	})
}

func TestRoutes(t *testing.T) {
	h := newRouter()
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/listings", http.StatusMovedPermanently},
		{http.MethodPost, "/listings/wizard/sell", http.StatusUnauthorized},
		{http.MethodPost, "/listings/wizard/rent/next", http.StatusUnauthorized},
		{http.MethodDelete, "/listings/dune", http.StatusUnauthorized},
		{http.MethodPost, "/listings/images", http.StatusUnauthorized},
		{http.MethodPost, "/community/posts", http.StatusUnauthorized},
		{http.MethodGet, "/auth/me", http.StatusUnauthorized},
		{http.MethodPut, "/listings/dune", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, rr.Code, tt.want)
		}
	}
}

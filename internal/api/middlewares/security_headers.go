package middlewares

import (
	"net/http"
	"os"
	"strings"
)

// SecurityHeaders sets the headers a JSON-only API needs. Anonymous GETs of
// public listing and community pages may be cached briefly; everything else
// is no-store.
func SecurityHeaders(next http.Handler) http.Handler {
	strict := os.Getenv("STRICT_SECURITY") == "1"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", cachePolicy(r))

		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		if strict {
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
		}
		h.Del("Server")

		next.ServeHTTP(w, r)
	})
}

func cachePolicy(r *http.Request) string {
	if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
		return "no-store"
	}
	p := r.URL.Path
	if strings.HasPrefix(p, "/listings/wizard/") {
		return "no-store"
	}
	if strings.HasPrefix(p, "/listings/") || strings.HasPrefix(p, "/community/") {
		return "public, max-age=30"
	}
	return "no-store"
}

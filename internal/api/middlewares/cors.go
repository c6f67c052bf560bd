package middlewares

import (
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/apperr"
)

// AllowedOrigins reads CORS_ORIGINS (comma separated). Unset means the Vite
// dev server on localhost.
func AllowedOrigins() []string {
	v := os.Getenv("CORS_ORIGINS")
	if strings.TrimSpace(v) == "" {
		return []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

const (
	corsAllowHeaders  = "Authorization, Content-Type, X-Request-ID"
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsExposeHeaders = "X-Request-ID, X-Response-Time, X-RateLimit-Policy, X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After"
)

// Cors admits browser requests only from origins. Requests without an Origin
// header (curl, server to server) pass untouched. Auth is bearer-only, so
// credentials are never allowed.
func Cors(origins []string, log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Add("Vary", "Origin")
			if _, ok := allowed[origin]; !ok {
				log.Warn("cors: blocked origin", zap.String("origin", origin), zap.String("path", r.URL.Path))
				apperr.WriteStatus(w, r, http.StatusForbidden, "Forbidden", "origin not allowed")
				return
			}
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", "3600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

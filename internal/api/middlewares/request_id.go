package middlewares

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Client-supplied ids are kept only if they are short and log-safe.
var ridRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// RequestID tags each request with an id, reusing a sane X-Request-ID from
// the client. The id is echoed in the response and copied onto the request
// header so apperr problems carry it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if !ridRe.MatchString(rid) {
			rid = uuid.NewString()
		}
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, rid))
		r.Header.Set("X-Request-ID", rid)
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}

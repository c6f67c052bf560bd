package middlewares

import (
	"net/http"
	"os"
	"strconv"

	"github.com/aashish4533/bloombook/internal/api/apperr"
)

// DefaultMaxBody covers every JSON payload the API takes. Listing images go
// straight to the bucket through presigned URLs and never pass through here.
const DefaultMaxBody int64 = 1 << 20

// BodyLimitFromEnv returns MAX_BODY_SIZE in bytes, or DefaultMaxBody.
func BodyLimitFromEnv() int64 {
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxBody
}

// BodySizeLimit caps request bodies at limit bytes. A declared Content-Length
// over the limit is refused up front with 413; otherwise reads past the limit
// fail inside the handler's decoder.
func BodySizeLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				apperr.WriteStatus(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large",
					"request body exceeds "+strconv.FormatInt(limit, 10)+" bytes")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

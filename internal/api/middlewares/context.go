package middlewares

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
)

// WithUserID marks ctx as authenticated. RequireAuth is the only production
// caller; handler tests use it directly.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFrom reports the authenticated user, if any.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id, id != ""
}

// GetRequestID returns the id set by RequestID, falling back to the header.
func GetRequestID(r *http.Request) string {
	if v, _ := r.Context().Value(ctxKeyRequestID).(string); v != "" {
		return v
	}
	return r.Header.Get("X-Request-ID")
}

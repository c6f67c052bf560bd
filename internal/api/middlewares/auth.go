package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aashish4533/bloombook/internal/api/apperr"
	jwtutil "github.com/aashish4533/bloombook/internal/security/jwt"
)

// TokenVersioner reports a user's current token_version.
type TokenVersioner interface {
	TokenVersion(ctx context.Context, userID string) (int, error)
}

// RequireAuth verifies the Bearer JWT, checks token_version against the
// store, then injects the user id into the context.
func RequireAuth(users TokenVersioner, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "missing Authorization header")
			return
		}
		tokenStr, err := bearer(raw)
		if err != nil {
			apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "invalid Authorization header")
			return
		}
		claims, err := jwtutil.ParseAccess(tokenStr)
		if err != nil {
			apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		dbVer, err := users.TokenVersion(r.Context(), claims.Subject)
		if err != nil {
			apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "user not found")
			return
		}
		if claims.TokenVersion != dbVer {
			apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "token revoked")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
	})
}

func bearer(h string) (string, error) {
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return "", errors.New("no bearer")
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	if tok == "" {
		return "", errors.New("empty bearer")
	}
	return tok, nil
}

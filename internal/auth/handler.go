// Package auth serves register/login/refresh/logout/me. Access tokens are
// short-lived JWTs; refresh tokens live in the Sessions allowlist.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/apperr"
	"github.com/aashish4533/bloombook/internal/api/httpx"
	"github.com/aashish4533/bloombook/internal/api/middlewares"
	jwtutil "github.com/aashish4533/bloombook/internal/security/jwt"
	"github.com/aashish4533/bloombook/internal/security/password"
	"github.com/aashish4533/bloombook/internal/validate"
)

type Handler struct {
	Store    UserStore
	Sessions Sessions
	// OnLogout runs after a refresh token is revoked. The server uses it to
	// drop the user's in-progress wizard drafts.
	OnLogout func(ctx context.Context, userID string)
	Log      *zap.Logger
}

func New(store UserStore, sessions Sessions, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Store: store, Sessions: sessions, Log: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	fe := validate.FieldErrors{}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := validate.Required("email", "Email", email); err != nil {
		fe.Add(err)
	} else if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		fe.Add(&validate.FieldError{Field: "email", Message: "Please enter a valid email"})
	}
	username, err := validate.Required("username", "Username", req.Username)
	fe.Add(err)
	_, err = validate.MaxLen("username", "Username", username, 32)
	fe.Add(err)
	pwd, warn, err := password.Validate(req.Password, email, username)
	if err != nil {
		fe.Add(&validate.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if !fe.Empty() {
		apperr.WriteValidation(w, r, fe)
		return
	}

	hash, err := password.Hash(pwd)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}

	u, err := h.Store.CreateUser(r.Context(), email, username, hash)
	if errors.Is(err, ErrEmailTaken) {
		apperr.Write(w, r, apperr.Problem{
			Status:      http.StatusConflict,
			Title:       "Conflict",
			FieldErrors: []apperr.FieldError{{Field: "email", Code: "unique", Message: "Email is already registered"}},
		})
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "Cannot create user")
		return
	}

	pair, err := h.issuePair(r.Context(), u.ID, u.TokenVersion)
	if err != nil {
		h.Log.Error("issue tokens", zap.String("user_id", u.ID), zap.Error(err))
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to issue tokens")
		return
	}

	resp := map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}
	if warn != nil {
		resp["password_warning"] = warn
	}
	httpx.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	u, err := h.Store.FindUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || u.ID == "" {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}
	ok, needsRehash, err := password.Verify(req.Password, u.PasswordHash)
	if err != nil || !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}
	if needsRehash {
		if newPHC, err := password.Hash(req.Password); err == nil {
			if err := h.Store.UpdateUserPasswordHash(r.Context(), u.ID, newPHC); err != nil {
				h.Log.Warn("rehash password", zap.String("user_id", u.ID), zap.Error(err))
			}
		}
	}

	pair, err := h.issuePair(r.Context(), u.ID, u.TokenVersion)
	if err != nil {
		h.Log.Error("issue tokens", zap.String("user_id", u.ID), zap.Error(err))
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to issue tokens")
		return
	}
	httpx.OK(w, pair)
}

// Refresh rotates a refresh token and signs a new access token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "refresh_token is required")
		return
	}
	ctx := r.Context()

	userID, tv, err := h.Sessions.Lookup(ctx, req.RefreshToken)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "invalid refresh token")
		return
	}
	u, err := h.Store.FindUserByID(ctx, userID)
	if err != nil || u.TokenVersion != tv {
		_ = h.Sessions.Revoke(ctx, req.RefreshToken)
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "token has been revoked")
		return
	}

	if err := h.Sessions.Revoke(ctx, req.RefreshToken); err != nil {
		h.Log.Warn("revoke refresh token", zap.Error(err))
	}
	pair, err := h.issuePair(ctx, u.ID, u.TokenVersion)
	if err != nil {
		h.Log.Error("issue tokens", zap.String("user_id", u.ID), zap.Error(err))
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "failed to issue tokens")
		return
	}
	httpx.OK(w, pair)
}

// Logout ends every session of the caller: the presented refresh token is
// revoked and token_version is bumped, which invalidates all access tokens
// and any other refresh token issued before. OnLogout then fires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	ctx := r.Context()

	userID, _ := middlewares.UserIDFrom(ctx)
	if req.RefreshToken != "" {
		owner, _, err := h.Sessions.Lookup(ctx, req.RefreshToken)
		if err == nil && (userID == "" || owner == userID) {
			if err := h.Sessions.Revoke(ctx, req.RefreshToken); err != nil {
				h.Log.Warn("revoke refresh token", zap.Error(err))
			}
			userID = owner
		}
	}
	if userID == "" {
		httpx.OKNoData(w)
		return
	}

	if _, err := h.Store.BumpTokenVersion(ctx, userID); err != nil && !errors.Is(err, ErrUserNotFound) {
		h.Log.Error("bump token version", zap.String("user_id", userID), zap.Error(err))
		apperr.HandleDBError(w, r, err, "Failed to log out")
		return
	}
	if h.OnLogout != nil {
		h.OnLogout(ctx, userID)
	}
	httpx.OKNoData(w)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	u, err := h.Store.FindUserByID(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "Failed to load user")
		return
	}
	httpx.OK(w, MeResponse{ID: u.ID, Email: u.Email, Username: u.Username, Status: u.Status, CreatedAt: u.CreatedAt})
}

func (h *Handler) issuePair(ctx context.Context, userID string, tokenVersion int) (TokenPair, error) {
	access, _, err := jwtutil.SignAccess(userID, tokenVersion, jwtutil.DefaultAccessTTL())
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := h.Sessions.Issue(ctx, userID, tokenVersion)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

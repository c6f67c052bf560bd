package community

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/apperr"
	"github.com/aashish4533/bloombook/internal/api/httpx"
	"github.com/aashish4533/bloombook/internal/api/middlewares"
	storecommunity "github.com/aashish4533/bloombook/internal/store/community"
	"github.com/aashish4533/bloombook/internal/validate"
)

type Handler struct {
	Store *storecommunity.Store
	Log   *zap.Logger
}

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type commentRequest struct {
	Body string `json:"body"`
}

// ListPosts serves GET /community/posts, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), 20, 100)
	posts, total, err := h.Store.ListPosts(r.Context(), limit, offset)
	if err != nil {
		apperr.HandleDBError(w, r, err, "Failed to list posts")
		return
	}
	httpx.Page(w, posts, total, limit, offset)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	title, body, fe := storecommunity.ValidatePost(req.Title, req.Body)
	if !fe.Empty() {
		apperr.WriteValidation(w, r, fe)
		return
	}
	p, err := h.Store.CreatePost(r.Context(), userID, title, body)
	if err != nil {
		apperr.HandleDBError(w, r, err, "Failed to create post")
		return
	}
	httpx.Created(w, p)
}

// ListComments serves GET /community/posts/{id}/comments, oldest first.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Store.ListComments(r.Context(), r.PathValue("id"))
	if errors.Is(err, storecommunity.ErrNotFound) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "post not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "Failed to list comments")
		return
	}
	httpx.OK(w, comments)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	body, fe := storecommunity.ValidateComment(req.Body)
	if !fe.Empty() {
		apperr.WriteValidation(w, r, fe)
		return
	}
	c, err := h.Store.AddComment(r.Context(), r.PathValue("id"), userID, body)
	if errors.Is(err, storecommunity.ErrNotFound) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "post not found")
		return
	}
	if err != nil {
		if h.Log != nil {
			h.Log.Error("community: add comment", zap.String("post_id", r.PathValue("id")), zap.Error(err))
		}
		apperr.HandleDBError(w, r, err, "Failed to add comment")
		return
	}
	httpx.Created(w, c)
}

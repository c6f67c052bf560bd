package listings

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/apperr"
	"github.com/aashish4533/bloombook/internal/api/httpx"
	"github.com/aashish4533/bloombook/internal/api/middlewares"
	"github.com/aashish4533/bloombook/internal/storage/s3"
	storelistings "github.com/aashish4533/bloombook/internal/store/listings"
	"github.com/aashish4533/bloombook/internal/validate"
	"github.com/aashish4533/bloombook/internal/wizard"
)

var errNoImages = errors.New("image storage is not configured")

// ImageStore is the part of the S3 client the listing routes need.
type ImageStore interface {
	PresignListingImage(ctx context.Context, userID, contentType string) (s3.Upload, error)
	ImageURLs(ctx context.Context, keys []string) []string
	DeleteObject(ctx context.Context, key string) error
}

// ViewRecorder takes listing view events off the request path.
type ViewRecorder interface {
	Enqueue(listingID string)
}

type Handler struct {
	Store  *storelistings.Store
	Images ImageStore
	Views  ViewRecorder
	Log    *zap.Logger
}

type listingOut struct {
	storelistings.Listing
	ImageURLs []string `json:"image_urls,omitempty"`
}

func (h *Handler) withURLs(ctx context.Context, l storelistings.Listing) listingOut {
	out := listingOut{Listing: l}
	if h.Images != nil && len(l.Images) > 0 {
		out.ImageURLs = h.Images.ImageURLs(ctx, l.Images)
	}
	return out
}

// List serves GET /listings/ with q, kind, category, condition, min_price,
// max_price, owner, limit and offset.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := validate.ClampLimitOffset(q.Get("limit"), q.Get("offset"), 20, 100)

	f := storelistings.ListFilter{
		Query:    q.Get("q"),
		Kind:     validate.ParseEnum(q.Get("kind"), string(wizard.KindSell), string(wizard.KindRent)),
		MinPrice: validate.ParseOptionalFloat(q.Get("min_price")),
		MaxPrice: validate.ParseOptionalFloat(q.Get("max_price")),
		OwnerID:  q.Get("owner"),
		Limit:    limit,
		Offset:   offset,
	}
	fe := validate.FieldErrors{}
	if v := q.Get("category"); v != "" {
		c, err := validate.OneOf("category", "Category", v, wizard.Categories)
		fe.Add(err)
		f.Category = c
	}
	if v := q.Get("condition"); v != "" {
		c, err := validate.OneOf("condition", "Condition", v, wizard.Conditions)
		fe.Add(err)
		f.Condition = c
	}
	if !fe.Empty() {
		apperr.WriteValidation(w, r, fe)
		return
	}

	items, total, err := h.Store.List(r.Context(), f)
	if err != nil {
		apperr.HandleDBError(w, r, err, "Failed to list listings")
		return
	}
	out := make([]listingOut, 0, len(items))
	for _, l := range items {
		out = append(out, h.withURLs(r.Context(), l))
	}
	httpx.Page(w, out, total, limit, offset)
}

// Get serves GET /listings/{key}; key is a UUID or slug.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.Store.Get(r.Context(), r.PathValue("key"))
	if errors.Is(err, storelistings.ErrNotFound) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "listing not found")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "Failed to load listing")
		return
	}
	if h.Views != nil {
		h.Views.Enqueue(l.ID)
	}
	httpx.OK(w, h.withURLs(r.Context(), l))
}

// Delete serves DELETE /listings/{key} for the listing's owner.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	err := h.Store.Remove(r.Context(), r.PathValue("key"), userID)
	switch {
	case errors.Is(err, storelistings.ErrNotFound):
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "listing not found")
	case errors.Is(err, storelistings.ErrForbidden):
		apperr.WriteStatus(w, r, http.StatusForbidden, "Forbidden", "only the owner can remove a listing")
	case err != nil:
		apperr.HandleDBError(w, r, err, "Failed to remove listing")
	default:
		httpx.OKNoData(w)
	}
}

type presignRequest struct {
	ContentType string `json:"content_type"`
}

// PresignImage serves POST /listings/images. The returned key goes into the
// Book Details form's images list.
func (h *Handler) PresignImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if h.Images == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", errNoImages.Error())
		return
	}
	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	up, err := h.Images.PresignListingImage(r.Context(), userID, req.ContentType)
	if err != nil {
		apperr.WriteValidation(w, r, map[string]string{"content_type": "Images must be JPEG, PNG or WebP"})
		return
	}
	httpx.Created(w, up)
}

// DeleteImage serves DELETE /listings/images/{key...}, for an upload the user
// dropped from the form before submitting. Only the uploader's own keys are
// accepted.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if h.Images == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", errNoImages.Error())
		return
	}
	prefix := wizard.ImageKeyPrefix + userID + "/"
	keys, err := validate.ImageKeys([]string{r.PathValue("key")}, prefix, 1)
	if err != nil || len(keys) != 1 {
		apperr.WriteStatus(w, r, http.StatusForbidden, "Forbidden", "not your image")
		return
	}
	if err := h.Images.DeleteObject(r.Context(), keys[0]); err != nil {
		if h.Log != nil {
			h.Log.Warn("listings: delete image", zap.String("key", keys[0]), zap.Error(err))
		}
		apperr.Write(w, r, apperr.Problem{Status: http.StatusBadGateway, Title: "Image delete failed", Retryable: true})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

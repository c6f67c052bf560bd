package listings_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/aashish4533/bloombook/internal/api/handlers/listings"
	"github.com/aashish4533/bloombook/internal/api/middlewares"
	"github.com/aashish4533/bloombook/internal/storage/s3"
	storelistings "github.com/aashish4533/bloombook/internal/store/listings"
)

const id = "0b6f1c2e-8a4d-4c1e-9f3a-2d5e6f7a8b9c"

var cols = []string{
	"id", "slug", "owner_id", "kind", "status",
	"isbn", "title", "author", "price",
	"condition", "category", "description",
	"published_year", "language", "page_count",
	"images",
	"delivery_method", "address", "city", "state", "zip_code",
	"latitude", "longitude",
	"created_at",
}

type fakeImages struct {
	userID, contentType string
	deleted             []string
}

func (f *fakeImages) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) PresignListingImage(_ context.Context, userID, contentType string) (s3.Upload, error) {
	f.userID, f.contentType = userID, contentType
	if contentType != "image/png" {
		return s3.Upload{}, errors.New("unsupported")
	}
	return s3.Upload{Key: "listings/" + userID + "/x.png", URL: "https://bucket/x.png"}, nil
}

func (f *fakeImages) ImageURLs(_ context.Context, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = "https://bucket/" + k
	}
	return out
}

type views []string

func (v *views) Enqueue(id string) { *v = append(*v, id) }

func newHandler(t *testing.T) (*listings.Handler, sqlmock.Sqlmock, *views) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	v := &views{}
	return &listings.Handler{
		Store:  storelistings.New(db, 0),
		Images: &fakeImages{},
		Views:  v,
	}, mock, v
}

func TestGetRecordsViewAndSignsImages(t *testing.T) {
	h, mock, v := newHandler(t)
	mock.ExpectQuery(`FROM listings l\s+WHERE l.slug = \$1 AND l.status = 'active'`).
		WithArgs("dune").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			id, "dune", "u-1", "rent", "active",
			"0441013597", "Dune", "Frank Herbert", 4.0,
			"Good", "Fiction", "",
			nil, "", nil,
			[]byte(`["listings/u-1/a.jpg"]`),
			"both", "1 Arrakis Way", "Lahore", "Punjab", "54000",
			nil, nil,
			time.Now(),
		))

	req := httptest.NewRequest(http.MethodGet, "/listings/dune", nil)
	req.SetPathValue("key", "dune")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Data struct {
			Slug      string   `json:"slug"`
			ImageURLs []string `json:"image_urls"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Slug != "dune" || len(body.Data.ImageURLs) != 1 || body.Data.ImageURLs[0] != "https://bucket/listings/u-1/a.jpg" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
	if len(*v) != 1 || (*v)[0] != id {
		t.Fatalf("view not recorded: %v", *v)
	}
	if strings.Contains(rr.Body.String(), "1 Arrakis Way") {
		t.Fatal("street address must not be exposed")
	}
}

func TestGetMissing(t *testing.T) {
	h, mock, v := newHandler(t)
	mock.ExpectQuery(`FROM listings l`).WillReturnRows(sqlmock.NewRows(cols))

	req := httptest.NewRequest(http.MethodGet, "/listings/nope", nil)
	req.SetPathValue("key", "nope")
	rr := httptest.NewRecorder()
	h.Get(rr, req)
	if rr.Code != http.StatusNotFound || len(*v) != 0 {
		t.Fatalf("want 404 and no view, got %d %v", rr.Code, *v)
	}
}

func TestListRejectsUnknownCategory(t *testing.T) {
	h, mock, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/listings/?category=Cooking", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteRequiresOwner(t *testing.T) {
	h, mock, _ := newHandler(t)
	mock.ExpectQuery(`SELECT l.id::text, l.slug, l.owner_id::text`).
		WithArgs("dune").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "owner_id"}).AddRow(id, "dune", "u-1"))

	req := httptest.NewRequest(http.MethodDelete, "/listings/dune", nil)
	req.SetPathValue("key", "dune")
	req = req.WithContext(middlewares.WithUserID(req.Context(), "u-2"))
	rr := httptest.NewRecorder()
	h.Delete(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Delete(rr, httptest.NewRequest(http.MethodDelete, "/listings/dune", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous delete: want 401, got %d", rr.Code)
	}
}

func TestPresignImage(t *testing.T) {
	h, _, _ := newHandler(t)
	fake := h.Images.(*fakeImages)

	req := httptest.NewRequest(http.MethodPost, "/listings/images", strings.NewReader(`{"content_type":"image/png"}`))
	req = req.WithContext(middlewares.WithUserID(req.Context(), "u-9"))
	rr := httptest.NewRecorder()
	h.PresignImage(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d %s", rr.Code, rr.Body.String())
	}
	if fake.userID != "u-9" || !strings.Contains(rr.Body.String(), "listings/u-9/x.png") {
		t.Fatalf("unexpected presign: %+v %s", fake, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/listings/images", strings.NewReader(`{"content_type":"image/gif"}`))
	req = req.WithContext(middlewares.WithUserID(req.Context(), "u-9"))
	rr = httptest.NewRecorder()
	h.PresignImage(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("gif: want 422, got %d", rr.Code)
	}
}

func TestDeleteImageOnlyOwnKeys(t *testing.T) {
	h, _, _ := newHandler(t)
	fake := h.Images.(*fakeImages)

	del := func(key string) int {
		req := httptest.NewRequest(http.MethodDelete, "/listings/images/"+key, nil)
		req.SetPathValue("key", key)
		req = req.WithContext(middlewares.WithUserID(req.Context(), "u-9"))
		rr := httptest.NewRecorder()
		h.DeleteImage(rr, req)
		return rr.Code
	}
	if code := del("listings/u-1/a.jpg"); code != http.StatusForbidden {
		t.Fatalf("foreign key: want 403, got %d", code)
	}
	if code := del("listings/u-9/../u-1/a.jpg"); code != http.StatusForbidden {
		t.Fatalf("traversal: want 403, got %d", code)
	}
	if code := del("listings/u-9/x.png"); code != http.StatusNoContent {
		t.Fatalf("own key: want 204, got %d", code)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "listings/u-9/x.png" {
		t.Fatalf("deleted: %v", fake.deleted)
	}
}

package community_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/aashish4533/bloombook/internal/api/handlers/community"
	"github.com/aashish4533/bloombook/internal/api/middlewares"
	storecommunity "github.com/aashish4533/bloombook/internal/store/community"
)

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/community/posts/p1/comments", strings.NewReader(body))
	req.SetPathValue("id", "p1")
	req = req.WithContext(middlewares.WithUserID(req.Context(), "u-1"))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestAddComment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	h := &community.Handler{Store: storecommunity.New(db)}

	if rr := post(t, h.AddComment, `{"body":"   "}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank comment: want 422, got %d", rr.Code)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()
	if rr := post(t, h.AddComment, `{"body":"Is this still available?"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("missing post: want 404, got %d %s", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreatePostValidates(t *testing.T) {
	h := &community.Handler{}
	if rr := post(t, h.CreatePost, `{"title":"","body":"hi"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rr.Code)
	}
	if rr := post(t, h.CreatePost, `not json`); rr.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rr.Code)
	}
}

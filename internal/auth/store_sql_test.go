package auth

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestBumpTokenVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s := NewSQLStore(db)

	bump := regexp.QuoteMeta(`SET token_version = COALESCE(token_version,1) + 1`)
	mock.ExpectQuery(bump).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(3))
	if tv, err := s.BumpTokenVersion(t.Context(), "u-1"); err != nil || tv != 3 {
		t.Fatalf("got %d %v", tv, err)
	}

	mock.ExpectQuery(bump).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}))
	if _, err := s.BumpTokenVersion(t.Context(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

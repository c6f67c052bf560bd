package viewqueue

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestShutdownFlushesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO listing_view_events (listing_id, viewed_at) VALUES ($1,$2)`)).
		WithArgs("l-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	q := New(db, 4, nil, nil)
	q.Enqueue("l-1")
	q.Enqueue("")
	q.Start(1)
	q.Shutdown()
	q.Shutdown()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	q := New(nil, 1, nil, nil)
	q.Enqueue("a")
	q.Enqueue("b")
	if len(q.ch) != 1 {
		t.Fatalf("want 1 queued event, got %d", len(q.ch))
	}
}

// Package viewqueue batches listing view events into Postgres off the
// request path.
package viewqueue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/metrics"
)

type event struct {
	listingID string
	viewedAt  time.Time
}

type Queue struct {
	db      *sql.DB
	ch      chan event
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	stop    sync.Once
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New builds a queue with a buffered channel. Suggested: buf=10000.
func New(db *sql.DB, buf int, m *metrics.Metrics, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		db:      db,
		ch:      make(chan event, buf),
		done:    make(chan struct{}),
		metrics: m,
		log:     log,
	}
}

// Start spins up N workers. Later calls are no-ops.
func (q *Queue) Start(workers int) {
	q.once.Do(func() {
		for i := 0; i < workers; i++ {
			q.wg.Add(1)
			go q.worker()
		}
	})
}

// Enqueue tries to queue a view event without blocking.
// If the buffer is full the event is dropped.
func (q *Queue) Enqueue(listingID string) {
	if q == nil || listingID == "" {
		return
	}
	ev := event{listingID: listingID, viewedAt: time.Now().UTC()}
	select {
	case q.ch <- ev:
		q.metrics.IncView()
	default:
		q.metrics.IncDropped()
	}
}

// Shutdown signals workers to stop, flushes remaining events, and waits.
func (q *Queue) Shutdown() {
	if q == nil {
		return
	}
	q.stop.Do(func() { close(q.done) })
	q.wg.Wait()
}

const (
	batchSize  = 100
	flushEvery = 250 * time.Millisecond
	writeTO    = 500 * time.Millisecond
	insertTmpl = `INSERT INTO listing_view_events (listing_id, viewed_at) VALUES %s`
)

func (q *Queue) worker() {
	defer q.wg.Done()
	tk := time.NewTicker(flushEvery)
	defer tk.Stop()

	batch := make([]event, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := q.insertBatch(batch); err != nil {
			q.log.Warn("view events insert failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-q.done:
			for {
				select {
				case ev := <-q.ch:
					batch = append(batch, ev)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case ev := <-q.ch:
			batch = append(batch, ev)
			if len(batch) >= batchSize {
				flush()
			}
		case <-tk.C:
			flush()
		}
	}
}

func (q *Queue) insertBatch(batch []event) error {
	// VALUES ($1,$2),($3,$4)...
	args := make([]any, 0, len(batch)*2)
	vals := make([]string, 0, len(batch))
	for i, ev := range batch {
		vals = append(vals, fmt.Sprintf("($%d,$%d)", 2*i+1, 2*i+2))
		args = append(args, ev.listingID, ev.viewedAt)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTO)
	defer cancel()
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(insertTmpl, strings.Join(vals, ",")), args...)
	return err
}

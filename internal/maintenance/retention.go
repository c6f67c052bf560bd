package maintenance

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const pruneViewEventsSQL = `DELETE FROM listing_view_events WHERE viewed_at < now() - make_interval(days => $1)`

// PruneViewEvents deletes listing view events older than keepDays and
// returns how many rows went away.
func PruneViewEvents(ctx context.Context, db *sql.DB, keepDays int) (int64, error) {
	if keepDays <= 0 {
		keepDays = 90
	}
	res, err := db.ExecContext(ctx, pruneViewEventsSQL, keepDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartViewEventsRetention runs PruneViewEvents daily at localTime ("HH:MM")
// in tzName until ctx is cancelled.
// Call once at startup: maintenance.StartViewEventsRetention(ctx, db, log, 90, "03:00", "UTC")
func StartViewEventsRetention(ctx context.Context, db *sql.DB, log *zap.Logger, keepDays int, localTime, tzName string) {
	go func() {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			loc = time.UTC
		}
		h, m := parseClock(localTime)

		for {
			timer := time.NewTimer(time.Until(nextRun(time.Now().In(loc), h, m)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				n, err := PruneViewEvents(ctx, db, keepDays)
				if err != nil {
					log.Error("retention: prune listing_view_events failed", zap.Error(err))
					continue
				}
				log.Info("retention: pruned listing_view_events", zap.Int64("rows", n), zap.Int("keep_days", keepDays))
			}
		}
	}()
}

func parseClock(s string) (int, int) {
	h, m := 3, 0
	if parts := strings.Split(s, ":"); len(parts) == 2 {
		if v, err := strconv.Atoi(parts[0]); err == nil && v >= 0 && v < 24 {
			h = v
		}
		if v, err := strconv.Atoi(parts[1]); err == nil && v >= 0 && v < 60 {
			m = v
		}
	}
	return h, m
}

func nextRun(now time.Time, h, m int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aashish4533/bloombook/internal/api/httpx"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	httpx.OK(w, map[string]string{
		"service": "bloombook",
		"docs":    "list or rent a book via /listings/wizard/{sell|rent}",
	})
}

// Health pings Postgres and Redis with a short timeout. A nil dependency is
// reported as "disabled".
func Health(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "disabled", "redis": "disabled"}
		healthy := true
		if db != nil {
			checks["postgres"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}
		status := http.StatusOK
		label := "success"
		if !healthy {
			status = http.StatusServiceUnavailable
			label = "error"
		}
		httpx.WriteJSON(w, status, map[string]any{"status": label, "data": checks})
	}
}

// Package sqlconnect opens the Postgres pool through the pgx stdlib driver.
package sqlconnect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PoolConfig sizes the database/sql pool.
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// PoolConfigFromEnv reads DB_MAX_CONNS (default 10), DB_MAX_IDLE_CONNS
// (defaults to DB_MAX_CONNS) and DB_CONN_MAX_LIFETIME (default 30m).
func PoolConfigFromEnv() PoolConfig {
	pc := PoolConfig{MaxOpen: 10, MaxIdleTime: 5 * time.Minute, MaxLifetime: 30 * time.Minute}
	if n, err := strconv.Atoi(os.Getenv("DB_MAX_CONNS")); err == nil && n > 0 {
		pc.MaxOpen = n
	}
	pc.MaxIdle = pc.MaxOpen
	if n, err := strconv.Atoi(os.Getenv("DB_MAX_IDLE_CONNS")); err == nil && n >= 0 && n <= pc.MaxOpen {
		pc.MaxIdle = n
	}
	if d, err := time.ParseDuration(os.Getenv("DB_CONN_MAX_LIFETIME")); err == nil && d > 0 {
		pc.MaxLifetime = d
	}
	return pc
}

func (pc PoolConfig) apply(db *sql.DB) {
	db.SetMaxOpenConns(pc.MaxOpen)
	db.SetMaxIdleConns(pc.MaxIdle)
	db.SetConnMaxIdleTime(pc.MaxIdleTime)
	db.SetConnMaxLifetime(pc.MaxLifetime)
}

// ConnectDB opens DATABASE_URL, sizes the pool and pings within 3s.
func ConnectDB(ctx context.Context) (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	PoolConfigFromEnv().apply(db)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

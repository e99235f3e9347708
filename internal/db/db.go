package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // registers "postgres"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Driver names the SQL backend behind local storage and event sequences.
type Driver string

const (
	Memory   Driver = "memory"
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

func ParseDriver(s string) (Driver, error) {
	switch d := Driver(s); d {
	case Memory, SQLite, Postgres:
		return d, nil
	default:
		return "", fmt.Errorf("unknown storage driver %q (want memory, sqlite or postgres)", s)
	}
}

// Open connects and pings the database.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	conn, err := openDB(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == SQLite {
		// a single writer avoids SQLITE_BUSY between pooled connections
		conn.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return conn, nil
}

// openDB opens a database handle without pinging.
func openDB(driver Driver, dsn string) (*sql.DB, error) {
	if driver != SQLite && driver != Postgres {
		return nil, fmt.Errorf("driver %q has no database", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn not set", driver)
	}
	return sql.Open(string(driver), dsn)
}

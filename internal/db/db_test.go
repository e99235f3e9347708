package db

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestParseDriver(t *testing.T) {
	for _, name := range []string{"memory", "sqlite", "postgres"} {
		d, err := ParseDriver(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if string(d) != name {
			t.Fatalf("expected %q, got %q", name, d)
		}
	}

	if _, err := ParseDriver("mysql"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenRejectsMemoryAndEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), Memory, "ignored"); err == nil {
		t.Fatalf("expected memory driver to have no database")
	}
	if _, err := Open(context.Background(), SQLite, ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestSQLiteMigrations(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "storefront.db")

	if err := RunMigrations(SQLite, dsn, zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	// second run is a no-op
	if err := RunMigrations(SQLite, dsn, zap.NewNop()); err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}

	conn, err := Open(context.Background(), SQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"local_storage", "event_sequences"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

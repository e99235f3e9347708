package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
)

type queries struct {
	get, set, del, clear string
}

var dialectQueries = map[db.Driver]queries{
	db.Postgres: {
		get: `SELECT value FROM local_storage WHERE namespace = $1 AND key = $2`,
		set: `
INSERT INTO local_storage (namespace, key, value, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (namespace, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW()
`,
		del:   `DELETE FROM local_storage WHERE namespace = $1 AND key = $2`,
		clear: `DELETE FROM local_storage WHERE namespace = $1`,
	},
	db.SQLite: {
		get: `SELECT value FROM local_storage WHERE namespace = ? AND key = ?`,
		set: `
INSERT INTO local_storage (namespace, key, value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (namespace, key) DO UPDATE
SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`,
		del:   `DELETE FROM local_storage WHERE namespace = ? AND key = ?`,
		clear: `DELETE FROM local_storage WHERE namespace = ?`,
	},
}

// SQLStore keeps the key-value pairs in the local_storage table. Concurrent
// writers to the same key resolve as last writer wins.
type SQLStore struct {
	db *sql.DB
	q  queries
}

func NewSQLStore(conn *sql.DB, driver db.Driver) (*SQLStore, error) {
	q, ok := dialectQueries[driver]
	if !ok {
		return nil, fmt.Errorf("local storage: unsupported driver %q", driver)
	}
	return &SQLStore{db: conn, q: q}, nil
}

func (s *SQLStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if namespace == "" {
		return "", false, ErrNamespaceRequired
	}
	var value string
	err := s.db.QueryRowContext(ctx, s.q.get, namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, namespace, key, value string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if _, err := s.db.ExecContext(ctx, s.q.set, namespace, key, value); err != nil {
		return fmt.Errorf("set %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, namespace, key string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if _, err := s.db.ExecContext(ctx, s.q.del, namespace, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if _, err := s.db.ExecContext(ctx, s.q.clear, namespace); err != nil {
		return fmt.Errorf("clear %s: %w", namespace, err)
	}
	return nil
}

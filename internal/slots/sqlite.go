package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, client, key string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM slots WHERE client_id = ? AND key = ?`, client, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %q: %w", key, err)
	}
	return []byte(data), nil
}

func (s *SQLiteStore) Put(ctx context.Context, client, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (client_id, key, data)
		VALUES (?, ?, jsonb(?))
		ON CONFLICT (client_id, key) DO UPDATE
		SET data = excluded.data,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, client, key, string(value))
	if err != nil {
		return fmt.Errorf("writing slot %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, client string, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM slots WHERE client_id = ? AND key = ?`, client, key,
		); err != nil {
			return fmt.Errorf("deleting slot %q: %w", key, err)
		}
	}
	return tx.Commit()
}

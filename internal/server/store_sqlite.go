package server

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

func (s *SQLiteStore) Get(ctx context.Context, username string) (int64, bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT money FROM balances WHERE username = ?`, username)

	var money int64
	if err := row.Scan(&money); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return money, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, username string, money int64) error {
	now := time.Now().Unix()

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO balances (username, money, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET money=excluded.money, updated_at=excluded.updated_at`,
		username, money, now,
	)
	return err
}

// Count returns the number of stored balances.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM balances`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

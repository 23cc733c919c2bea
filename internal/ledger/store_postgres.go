package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists the marker set in PostgreSQL, for deployments where
// several services share one durable backend. Durability and idempotency come
// from the database itself: markers are primary keys and commits use
// ON CONFLICT DO NOTHING.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Contains(ctx context.Context, marker string) (bool, error) {
	query := `SELECT 1 FROM uniqueness_markers WHERE marker = $1`
	var one int
	err := s.db.QueryRowContext(ctx, query, marker).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check marker: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) Commit(ctx context.Context, marker string) error {
	query := `
		INSERT INTO uniqueness_markers (marker, committed_at)
		VALUES ($1, NOW())
		ON CONFLICT (marker) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, marker); err != nil {
		return fmt.Errorf("commit marker: %w", err)
	}
	return nil
}

func (s *PostgresStore) Size(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uniqueness_markers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count markers: %w", err)
	}
	return count, nil
}

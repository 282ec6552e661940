package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the indexer's Postgres event store. The gateway only reads
// from it; the indexer owns the schema.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// QueryScalar runs a generated aggregate query and returns its single
// numeric result. Only queries produced by the translator are ever passed
// here.
func (s *Store) QueryScalar(ctx context.Context, sql string) (float64, error) {
	var raw interface{}
	if err := s.Pool.QueryRow(ctx, sql).Scan(&raw); err != nil {
		return 0, fmt.Errorf("event store query: %w", err)
	}

	switch v := raw.(type) {
	case nil:
		return 0, nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("event store query: unexpected result type %T", raw)
	}
}

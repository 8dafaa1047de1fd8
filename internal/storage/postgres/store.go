package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/teahouse-backend/internal/store"
)

var (
	_ store.Store  = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)

// Store keeps each collection as one row of the collections table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store that uses the given pool. The schema must have
// been applied with RunMigrations.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const (
	loadQuery    = `SELECT data FROM collections WHERE name = $1`
	replaceQuery = `INSERT INTO collections (name, data, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
)

func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, loadQuery, name).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotExist
		}
		return nil, errors.Wrapf(err, "load %q", name)
	}
	return data, nil
}

// Replace upserts the collection row in a single statement, so readers see
// either the old or the new document.
func (s *Store) Replace(ctx context.Context, name string, data []byte) error {
	if _, err := s.pool.Exec(ctx, replaceQuery, name, string(data)); err != nil {
		return errors.Wrapf(err, "replace %q", name)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

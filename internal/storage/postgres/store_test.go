//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/teahouse-backend/internal/store"
)

func startPostgres(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "teahouse",
				"POSTGRES_PASSWORD": "teahouse",
				"POSTGRES_DB":       "teahouse",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://teahouse:teahouse@%s:%s/teahouse?sslmode=disable", host, port.Port())
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "migrations are idempotent")
	return NewStore(pool)
}

type row struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := startPostgres(t)

	require.NoError(t, s.Ping(ctx))

	_, err := s.Load(ctx, "orders")
	require.ErrorIs(t, err, store.ErrNotExist)

	require.NoError(t, s.Replace(ctx, "orders", []byte(`[{"id":1}]`)))
	require.NoError(t, s.Replace(ctx, "orders", []byte(`[{"id":1},{"id":2}]`)))

	data, err := s.Load(ctx, "orders")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(data))
}

func TestStore_Collection(t *testing.T) {
	ctx := context.Background()
	c := store.NewCollection[row](startPostgres(t), "rows", store.WithSeed(func() []row {
		return []row{{ID: 1, Name: "seed"}}
	}))

	err := c.Update(ctx, func(rows []row) ([]row, error) {
		return append(rows, row{ID: store.NextID(rows, func(r row) int { return r.ID }), Name: "next"}), nil
	})
	require.NoError(t, err)

	rows, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []row{{ID: 1, Name: "seed"}, {ID: 2, Name: "next"}}, rows)
}

package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	postgresOnce    sync.Once
	postgresCleanup func()
	postgresDSN     string
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by all E2E tests. The fragments table is dropped on every call.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres e2e test in short mode")
	}

	postgresOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		postgresCleanup = func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		}

		postgresDSN, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}
	})

	if postgresDSN == "" {
		t.Fatal("postgres container unavailable")
	}

	pool, err := pgxpool.New(t.Context(), postgresDSN)
	if err != nil {
		t.Fatalf("could not connect to database: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(t.Context(), "DROP TABLE IF EXISTS fragments"); err != nil {
		t.Fatalf("reset database: %v", err)
	}

	return postgresDSN
}

package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/database/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testPoolErr  error
)

// getSharedTestDatabase returns a pool on a postgres container shared by all
// tests in the package. Tests are skipped in -short mode.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			testPoolErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			testPoolErr = fmt.Errorf("connection string: %w", err)
			return
		}

		testPool, testPoolErr = pgxpool.New(ctx, connectionStr)
	})

	require.NoError(t, testPoolErr)

	return testPool
}

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

func dropTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
	_, err := pool.Exec(ctx, sql)
	return err
}

func getDSN(pool *pgxpool.Pool) string {
	return pool.Config().ConnString()
}

// setupTestRepo creates a migrated repo on a table unique to the test.
func setupTestRepo(t *testing.T) fragments.MetaDataRepo {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "metadata_" + getRandomString(t)

	db, err := postgres.Connect(ctx, getDSN(pool), fragments.Tables{MetaData: tableName})
	require.NoError(t, err, "failed to connect")

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() {
		_ = db.Close()
		_ = dropTable(ctx, pool, tableName)
	})

	return db.GetRepo()
}

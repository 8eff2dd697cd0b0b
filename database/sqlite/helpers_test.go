package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestDB connects to an in-memory database with unique table names and
// migrates them. withData adds the payload table.
func setupTestDB(t *testing.T, withData bool) *sqlite.DB {
	t.Helper()

	ctx := context.Background()

	suffix := getRandomString(t)
	tables := fragments.Tables{MetaData: "metadata_" + suffix}
	if withData {
		tables.Data = "data_" + suffix
	}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")

	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db
}

func testRecord(ownerID, id string, created time.Time) fragments.Record {
	return fragments.Record{
		ID:      id,
		OwnerID: ownerID,
		Created: created,
		Updated: created,
		Type:    fragments.TypeTextPlain,
		Size:    5,
	}
}

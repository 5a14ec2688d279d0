package migratortest

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MateoVillarinos/xrprich/migrator"
	"github.com/MateoVillarinos/xrprich/pkg/pgxdb/pgxdbtest"
)

// CreateSchemaDatabase creates a test database with only the schema migrations applied.
// Returns the connection pool ready for use.
func CreateSchemaDatabase(t *testing.T, migrationsDir string) *pgxpool.Pool {
	t.Helper()

	pool, _ := pgxdbtest.CreateTestDatabase(t, migrator.NewSchemaMigrator(migrationsDir))
	return pool
}

// CreateSeededDatabase creates a test database with the schema applied and every
// CSV snapshot of snapshotsDir imported together with its metrics.
// Returns the connection pool ready for use.
func CreateSeededDatabase(t *testing.T, migrationsDir, snapshotsDir string) *pgxpool.Pool {
	t.Helper()

	pool, _ := pgxdbtest.CreateTestDatabase(t, migrator.NewSeededMigrator(migrationsDir, snapshotsDir))
	return pool
}

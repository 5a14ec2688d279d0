package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/MateoVillarinos/xrprich/pkg/pgxdb"
	"github.com/MateoVillarinos/xrprich/scraper"
	"github.com/MateoVillarinos/xrprich/scraper/store/csvstore"
	"github.com/MateoVillarinos/xrprich/scraper/store/pgxstore"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_snapshots_"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrMigrationHash      = errors.New("migration hash failed")
	ErrImportList         = errors.New("listing snapshots to import failed")
	ErrImportSnapshot     = errors.New("snapshot import failed")
)

// SchemaMigrator applies only database schema migrations
// Used for production and tests that need schema-only setup
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(_ context.Context, db *sql.DB, _ pgtestdb.Config) error {
	return applyMigrations(db, m.migrationsDir)
}

// SeededMigrator applies schema migrations and imports a directory of CSV
// snapshots. Used for web API tests that need realistic history.
type SeededMigrator struct {
	migrationsDir string
	snapshotsDir  string
	importer      Importer
}

// NewSeededMigrator creates a migrator that applies schema + imports snapshotsDir
func NewSeededMigrator(migrationsDir, snapshotsDir string) *SeededMigrator {
	return &SeededMigrator{
		migrationsDir: migrationsDir,
		snapshotsDir:  snapshotsDir,
		importer:      DefaultImporter,
	}
}

func (m *SeededMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return seededHashPrefix + baseHash + "_" + m.snapshotsDir, nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}

	pool, err := pgxdb.NewConnection(ctx, conf.URL())
	if err != nil {
		return err
	}
	dst, closer := pgxstore.New(pool)
	defer closer()

	src, err := csvstore.New(m.snapshotsDir)
	if err != nil {
		return err
	}

	n, err := m.importer.Import(ctx, src, dst)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Seeded template database", slog.Int("snapshots", n), slog.String("dir", m.snapshotsDir))
	return nil
}

// Importer copies snapshots between stores and recomputes their metrics
type Importer struct {
	Namer   scraper.Namer
	Supply  uint64
	Cutoffs []int
}

// DefaultImporter uses the naming, supply and cutoffs of the scraper defaults
var DefaultImporter = Importer{
	Namer:   scraper.DefaultNamer,
	Supply:  scraper.DefaultTotalSupply,
	Cutoffs: scraper.DefaultCutoffs,
}

// Import copies every snapshot of src into dst, oldest first, and writes
// the metrics derived from each one. It returns the number of snapshots copied.
func (im Importer) Import(ctx context.Context, src, dst scraper.Store) (int, error) {
	refs, err := src.ListSnapshots(ctx, im.Namer.SnapshotPrefix())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrImportList, err)
	}

	for i, ref := range refs {
		snap, err := src.ReadSnapshot(ctx, ref.ID)
		if err != nil {
			return i, fmt.Errorf("%w: %s: %w", ErrImportSnapshot, ref.Name, err)
		}
		if err := dst.WriteSnapshot(ctx, snap, ref.Name); err != nil {
			return i, fmt.Errorf("%w: %s: %w", ErrImportSnapshot, ref.Name, err)
		}

		summary := scraper.Aggregate(snap.Records, im.Supply, im.Cutoffs, snap.Timestamp)
		if err := dst.WriteMetrics(ctx, summary, im.Namer.MetricsName(snap.Timestamp)); err != nil {
			return i, fmt.Errorf("%w: %s: %w", ErrImportSnapshot, ref.Name, err)
		}
	}

	return len(refs), nil
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

func migrationsHash(migrationsDir string) (string, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	hash, err := sqlmigrator.New(source, migrationSet).Hash()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrMigrationHash, migrationsDir, err)
	}
	return hash, nil
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) error {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	_, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return nil
}

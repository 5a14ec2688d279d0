package migrator_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/migrator"
	"github.com/MateoVillarinos/xrprich/scraper"
	"github.com/MateoVillarinos/xrprich/scraper/store/csvstore"
)

const snapshotsDir = "testdata/snapshots"

func TestImporter(t *testing.T) {
	t.Parallel()

	t.Run("it copies every snapshot and derives its metrics", func(t *testing.T) {
		t.Parallel()

		// Arrange
		src, err := csvstore.New(snapshotsDir)
		require.NoError(t, err)
		dst, err := csvstore.New(filepath.Join(t.TempDir(), "import"))
		require.NoError(t, err)

		// Act
		n, err := migrator.DefaultImporter.Import(t.Context(), src, dst)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		refs, err := dst.ListSnapshots(t.Context(), scraper.DefaultNamer.SnapshotPrefix())
		require.NoError(t, err)
		assert.Len(t, refs, 2)

		history, err := dst.MetricsHistory(t.Context())
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), history[0].Timestamp)

		top10, ok := history[1].Pct(10)
		require.True(t, ok)
		assert.Equal(t, "50.00", top10.StringFixed(2))
	})

	t.Run("it stops at the first unreadable snapshot", func(t *testing.T) {
		t.Parallel()

		// Arrange
		src, err := csvstore.New(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, src.WriteSnapshot(t.Context(), scraper.Snapshot{}, "xrp_snapshot_not-a-stamp.csv"))
		dst, err := csvstore.New(t.TempDir())
		require.NoError(t, err)

		// Act
		n, err := migrator.DefaultImporter.Import(t.Context(), src, dst)

		// Assert
		assert.Zero(t, n)
		assert.ErrorIs(t, err, migrator.ErrImportSnapshot)
		assert.ErrorIs(t, err, scraper.ErrInvalidTimestamp)
	})
}

func TestMigratorHashes(t *testing.T) {
	t.Parallel()

	// Act
	schemaHash, schemaErr := migrator.NewSchemaMigrator("migrations").Hash()
	seededHash, seededErr := migrator.NewSeededMigrator("migrations", snapshotsDir).Hash()

	// Assert
	require.NoError(t, schemaErr)
	require.NoError(t, seededErr)
	assert.NotEqual(t, schemaHash, seededHash, "seeded templates must not be reused as schema-only templates")
}

package csvstore_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/scraper"
	"github.com/MateoVillarinos/xrprich/scraper/store/csvstore"
)

var runTime = time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)

func TestStoreSnapshots(t *testing.T) {
	t.Parallel()

	t.Run("it round-trips a snapshot", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		pct := 1.25
		snap := scraper.Snapshot{Timestamp: runTime, Records: []scraper.WalletRecord{
			{Rank: 1, Wallet: "rA", Owner: "Exchange, Inc.", Balance: 1_000_000, Locked: 5, Percentage: &pct},
			{Rank: 2, Wallet: "rB", Balance: 7},
		}}
		name := scraper.DefaultNamer.SnapshotName(runTime)

		// Act
		require.NoError(t, store.WriteSnapshot(t.Context(), snap, name))
		got, err := store.ReadSnapshot(t.Context(), name)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, snap, got)
	})

	t.Run("it writes the documented header", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		name := scraper.DefaultNamer.SnapshotName(runTime)

		// Act
		require.NoError(t, store.WriteSnapshot(t.Context(), scraper.Snapshot{Timestamp: runTime}, name))

		// Assert
		assertFileContent(t, filepath.Join(store.Dir(), name), "Rank,Wallet,Owner,Balance,XRP Locked,Percentage\n")
	})

	t.Run("it reads files without a percentage column", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		name := "xrp_snapshot_2024-01-01_00-00.csv"
		writeFile(t, store, name, "Rank,Wallet,Owner,Balance,XRP Locked\n1,rA,,10,2\n")

		// Act
		got, err := store.ReadSnapshot(t.Context(), name)

		// Assert
		require.NoError(t, err)
		require.Len(t, got.Records, 1)
		assert.Equal(t, uint64(12), got.Records[0].Total())
		assert.Nil(t, got.Records[0].Percentage)
	})

	t.Run("it lists only matching snapshot files", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		writeFile(t, store, "xrp_snapshot_2024-01-02_00-00.csv", "")
		writeFile(t, store, "xrp_snapshot_2024-01-01_00-00.csv", "")
		writeFile(t, store, "xrp_metrics_2024-01-03_00-00.csv", "")
		writeFile(t, store, "xrp_snapshot_notes.txt", "")

		// Act
		refs, err := store.ListSnapshots(t.Context(), scraper.DefaultNamer.SnapshotPrefix())

		// Assert
		require.NoError(t, err)
		require.Len(t, refs, 2)
		latest, ok := scraper.LatestSnapshot(refs)
		require.True(t, ok)
		assert.Equal(t, "xrp_snapshot_2024-01-02_00-00.csv", latest.ID)
	})

	t.Run("it rejects corrupted files", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		writeFile(t, store, "xrp_snapshot_2024-01-01_00-00.csv", "Rank,Wallet,Owner,Balance,XRP Locked\n1,rA,,lots,0\n")
		writeFile(t, store, "xrp_snapshot_2024-01-02_00-00.csv", "Wallet,Balance\nrA,1\n")

		// Act
		_, badRecord := store.ReadSnapshot(t.Context(), "xrp_snapshot_2024-01-01_00-00.csv")
		_, badHeader := store.ReadSnapshot(t.Context(), "xrp_snapshot_2024-01-02_00-00.csv")
		_, missing := store.ReadSnapshot(t.Context(), "xrp_snapshot_2024-01-03_00-00.csv")

		// Assert
		assert.ErrorIs(t, badRecord, csvstore.ErrBadRecord)
		assert.ErrorIs(t, badHeader, csvstore.ErrBadHeader)
		assert.ErrorIs(t, missing, csvstore.ErrReadFile)
	})

	t.Run("it refuses names outside the directory", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)

		// Act
		err := store.WriteSnapshot(t.Context(), scraper.Snapshot{}, "../xrp_snapshot_2024-01-01_00-00.csv")

		// Assert
		assert.ErrorIs(t, err, csvstore.ErrUnsafeName)
	})
}

func TestStoreMetrics(t *testing.T) {
	t.Parallel()

	t.Run("it writes one row per run", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		name := scraper.DefaultNamer.MetricsName(runTime)

		// Act
		err := store.WriteMetrics(t.Context(), summaryAt(runTime, "12.3", "45.67"), name)

		// Assert
		require.NoError(t, err)
		assertFileContent(t, filepath.Join(store.Dir(), name),
			"Timestamp,Top10Pct,Top100Pct\n2024-05-06_07-08,12.30,45.67\n")
	})

	t.Run("it returns the history oldest first", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		later := runTime.Add(time.Hour)
		require.NoError(t, store.WriteMetrics(t.Context(), summaryAt(later, "2", "20"), scraper.DefaultNamer.MetricsName(later)))
		require.NoError(t, store.WriteMetrics(t.Context(), summaryAt(runTime, "1", "10"), scraper.DefaultNamer.MetricsName(runTime)))
		require.NoError(t, store.WriteSnapshot(t.Context(), scraper.Snapshot{}, scraper.DefaultNamer.SnapshotName(runTime)))

		// Act
		history, err := store.MetricsHistory(t.Context())

		// Assert
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, runTime, history[0].Timestamp)
		assert.Equal(t, later, history[1].Timestamp)
		top100, ok := history[1].Pct(100)
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(20).Equal(top100))
	})

	t.Run("it fails on unreadable metric columns", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store := newStore(t)
		writeFile(t, store, "xrp_metrics_2024-01-01_00-00.csv", "Timestamp,Whales\n2024-01-01_00-00,1\n")

		// Act
		_, err := store.MetricsHistory(t.Context())

		// Assert
		assert.ErrorIs(t, err, csvstore.ErrBadHeader)
	})
}

func TestStoreDeltaReport(t *testing.T) {
	t.Parallel()

	// Arrange
	store := newStore(t)
	oldA, newA, oldB := uint64(1000), uint64(1500), uint64(300)
	deltas := []scraper.WalletDelta{
		{Wallet: "rA", Owner: "Whale", Old: &oldA, New: &newA, Change: 500},
		{Wallet: "rB", Old: &oldB, Change: -300},
	}

	// Act
	path, err := store.WriteDeltaReport(t.Context(), deltas, scraper.DefaultNamer.DeltaName(runTime))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "xrp_delta_2024-05-06_07-08.csv"), path)
	assertFileContent(t, path, "Wallet,Owner,Old Balance,New Balance,Balance Change\n"+
		"rA,Whale,1000,1500,500\n"+
		"rB,,300,,-300\n")
}

func newStore(t *testing.T) *csvstore.Store {
	t.Helper()
	store, err := csvstore.New(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return store
}

func summaryAt(ts time.Time, top10, top100 string) scraper.Summary {
	return scraper.Summary{Metrics: scraper.MetricSet{
		Timestamp: ts,
		Concentration: []scraper.Concentration{
			{Cutoff: 10, Pct: decimal.RequireFromString(top10)},
			{Cutoff: 100, Pct: decimal.RequireFromString(top100)},
		},
	}}
}

func writeFile(t *testing.T, store *csvstore.Store, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), name), []byte(content), 0o600))
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

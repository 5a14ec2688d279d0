package scraper_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/scraper"
)

func TestFormatSummary(t *testing.T) {
	t.Parallel()

	summary := scraper.Summary{
		Metrics:          metricSet(10, "12.3", 100, "45.678"),
		TotalLocked:      200_000,
		TotalCirculating: 1_500_000,
		Wallets:          2,
	}

	t.Run("it lists totals and concentration", func(t *testing.T) {
		t.Parallel()

		// Act
		text := scraper.FormatSummary(summary, nil, scraper.DefaultTopMovers)

		// Assert
		assert.Equal(t, strings.Join([]string{
			"XRP Rich List Report",
			"2024-01-01_00-00",
			"Wallets: 2",
			"Locked: 200,000 XRP",
			"Circulating: 1,500,000 XRP",
			"Top 10: 12.30%",
			"Top 100: 45.68%",
		}, "\n"), text)
	})

	t.Run("it lists the biggest movers in both directions", func(t *testing.T) {
		t.Parallel()

		// Arrange
		deltas := []scraper.WalletDelta{
			{Wallet: "rUp1", Owner: "Exchange", Change: 5000},
			{Wallet: "rUp2", Change: 40},
			{Wallet: "rDown2", Change: -10},
			{Wallet: "rDown1", Change: -2500},
		}

		// Act
		text := scraper.FormatSummary(summary, deltas, 1)

		// Assert
		lines := strings.Split(text, "\n")
		require.GreaterOrEqual(t, len(lines), 3)
		assert.Equal(t, []string{
			"Wallets changed: 4",
			"+5,000 XRP rUp1 (Exchange)",
			"-2,500 XRP rDown1",
		}, lines[len(lines)-3:])
	})

	t.Run("it omits movers when disabled", func(t *testing.T) {
		t.Parallel()

		// Arrange
		deltas := []scraper.WalletDelta{{Wallet: "rUp1", Change: 1}}

		// Act
		text := scraper.FormatSummary(summary, deltas, 0)

		// Assert
		assert.True(t, strings.HasSuffix(text, "Wallets changed: 1"), "got %q", text)
	})
}

func TestFormatNoData(t *testing.T) {
	t.Parallel()

	// Act
	text := scraper.FormatNoData(time.Date(2025, 3, 4, 5, 6, 0, 0, time.UTC))

	// Assert
	assert.Equal(t, "XRP Rich List Report\n2025-03-04_05-06\nNo data obtained from the explorer.", text)
}

func TestNaming(t *testing.T) {
	t.Parallel()

	t.Run("it embeds the run stamp in every artifact name", func(t *testing.T) {
		t.Parallel()

		// Arrange
		n := scraper.DefaultNamer
		ts := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)

		// Act & Assert
		assert.Equal(t, "xrp_snapshot_2025-12-31_23-59.csv", n.SnapshotName(ts))
		assert.Equal(t, "xrp_metrics_2025-12-31_23-59.csv", n.MetricsName(ts))
		assert.Equal(t, "xrp_delta_2025-12-31_23-59.csv", n.DeltaName(ts))
		assert.Equal(t, "xrp_chart_2025-12-31_23-59.png", n.ChartName(ts))
	})

	t.Run("it parses the stamp back from a path", func(t *testing.T) {
		t.Parallel()

		// Act
		ts, err := scraper.ParseStamp("data/xrp_snapshot_2024-02-29_13-05.csv", time.UTC)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 29, 13, 5, 0, 0, time.UTC), ts)
	})

	t.Run("it rejects names without a stamp", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"notes.csv", "xrp_snapshot_latest.csv", "xrp_snapshot_2024-13-01_00-00.csv"} {
			// Act
			_, err := scraper.ParseStamp(name, time.UTC)

			// Assert
			assert.ErrorIs(t, err, scraper.ErrInvalidTimestamp, "name %q", name)
		}
	})

	t.Run("it picks the most recent snapshot by name", func(t *testing.T) {
		t.Parallel()

		// Arrange
		refs := []scraper.SnapshotRef{
			{ID: "b", Name: "xrp_snapshot_2024-01-02_00-00.csv"},
			{ID: "c", Name: "xrp_snapshot_2024-01-10_00-00.csv"},
			{ID: "a", Name: "xrp_snapshot_2023-12-31_23-59.csv"},
		}

		// Act
		latest, ok := scraper.LatestSnapshot(refs)
		_, none := scraper.LatestSnapshot(nil)

		// Assert
		require.True(t, ok)
		assert.Equal(t, "c", latest.ID)
		assert.False(t, none)
	})
}

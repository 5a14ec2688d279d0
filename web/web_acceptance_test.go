//go:build acceptance

package web_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/migrator/migratortest"
	"github.com/MateoVillarinos/xrprich/pkg/logger"
	"github.com/MateoVillarinos/xrprich/web/api"
	"github.com/MateoVillarinos/xrprich/web/handler"
	"github.com/MateoVillarinos/xrprich/web/store/pgxstore"
	"github.com/MateoVillarinos/xrprich/web/testcfg"
)

// TestWebAPIAcceptanceBehavior tests end-to-end web API functionality
func TestWebAPIAcceptanceBehavior(t *testing.T) {
	t.Parallel()

	testCfg := testcfg.New()

	// The seeded database is read-only, so every subtest shares it
	seeded := migratortest.CreateSeededDatabase(t, testCfg.MigrationsDir, testCfg.SnapshotsDir)

	t.Run("it returns metric runs newest first", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := createTestServer(t, seeded)

		// Act
		response := makeGetRequest(t, server.URL+"/xrp/metrics")
		metricsResp := parseJSONResponse[api.MetricsResponse](t, response)

		// Assert
		assertSuccessfulResponse(t, response)
		require.Len(t, metricsResp.Data, 2)
		assertMetricsOrderedMostRecentFirst(t, metricsResp.Data)
		assertAllMetricsHaveCutoffs(t, metricsResp.Data)
		assertPaginationLinksAbsent(t, response)
	})

	t.Run("it filters metric runs by year", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := createTestServer(t, seeded)

		// Act
		response := makeGetRequest(t, server.URL+"/xrp/metrics?year=2024")
		metricsResp := parseJSONResponse[api.MetricsResponse](t, response)

		// Assert
		assertSuccessfulResponse(t, response)
		assert.Empty(t, metricsResp.Data)
	})

	t.Run("it rejects an out of range year", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := createTestServer(t, seeded)

		// Act
		response := makeGetRequest(t, server.URL+"/xrp/metrics?year=1999")
		apiErr := parseJSONResponse[map[string]any](t, response)

		// Assert
		assert.Equal(t, http.StatusBadRequest, response.StatusCode)
		assert.Contains(t, apiErr["message"], "year must be between 2012 and current year + 10")
	})

	t.Run("it returns deltas between the two latest snapshots", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := createTestServer(t, seeded)

		// Act
		response := makeGetRequest(t, server.URL+"/xrp/deltas")
		deltasResp := parseJSONResponse[api.DeltasResponse](t, response)

		// Assert
		assertSuccessfulResponse(t, response)
		assert.Equal(t, "xrp_snapshot_2025-01-02_00-00.csv", deltasResp.Latest)
		assert.Equal(t, "xrp_snapshot_2025-01-01_00-00.csv", deltasResp.Previous)
		assertDeltaWallets(t, deltasResp.Data, "rNew", "rWhale", "rFund", "rSmall")
		assertDeltaChanges(t, deltasResp.Data, "2000", "500", "-300", "-1000")
	})

	t.Run("it provides GitHub-style pagination Link headers", func(t *testing.T) {
		t.Parallel()

		t.Run("it provides next link on first page when more pages exist", func(t *testing.T) {
			t.Parallel()

			// Arrange
			server := createTestServer(t, seeded)

			// Act
			response := makeGetRequest(t, fmt.Sprintf("%s/xrp/deltas?page=%d&per_page=%d", server.URL, 1, 2))

			// Assert
			assertSuccessfulResponse(t, response)
			assertContainsLink(t, response, "next")
			assertMissingLink(t, response, "prev")
		})

		t.Run("it provides prev link on the last page", func(t *testing.T) {
			t.Parallel()

			// Arrange
			server := createTestServer(t, seeded)

			// Act
			response := makeGetRequest(t, fmt.Sprintf("%s/xrp/deltas?page=%d&per_page=%d", server.URL, 2, 2))
			deltasResp := parseJSONResponse[api.DeltasResponse](t, response)

			// Assert
			assertSuccessfulResponse(t, response)
			assertDeltaWallets(t, deltasResp.Data, "rFund", "rSmall")
			assertContainsLink(t, response, "prev")
			assertMissingLink(t, response, "next")
		})

		t.Run("it preserves query parameters in pagination links", func(t *testing.T) {
			t.Parallel()

			// Arrange
			server := createTestServer(t, seeded)

			// Act
			response := makeGetRequest(t, server.URL+"/xrp/metrics?year=2025&per_page=1")

			// Assert
			assertSuccessfulResponse(t, response)
			assertContainsLink(t, response, "next")
			assert.Contains(t, response.Header.Get("Link"), "year=2025")
			assert.Contains(t, response.Header.Get("Link"), "per_page=1")
		})
	})

	t.Run("it answers unknown routes with a JSON 404", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := createTestServer(t, seeded)

		// Act
		response := makeGetRequest(t, server.URL+"/xrp/holders")
		_ = parseJSONResponse[map[string]any](t, response)

		// Assert
		assert.Equal(t, http.StatusNotFound, response.StatusCode)
	})
}

// =============================================================================
// Arrange Phase Helpers
// =============================================================================

// createTestServer wires the handlers to the database like production does
func createTestServer(t *testing.T, pool *pgxpool.Pool) *httptest.Server {
	t.Helper()

	// The shared pool outlives every subtest, so the finder closer is not used
	finder, _ := pgxstore.New(pool)

	mux := http.NewServeMux()
	handler.NewXRPGetMetrics(finder).AddRoutes(mux)
	handler.NewXRPGetDeltas(finder).AddRoutes(mux)
	handler.AddNotFound(mux)

	testCfg := testcfg.New()
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         testCfg.LogLevel,
		LogHumanFriendly: testCfg.LogHumanFriendly,
	})

	server := httptest.NewServer(logger.NewMiddleware(log)(mux))
	t.Cleanup(server.Close)

	return server
}

// =============================================================================
// Action Helpers
// =============================================================================

func makeGetRequest(t *testing.T, url string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	require.NoError(t, err, "Should create HTTP request")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "HTTP request should succeed")

	return resp
}

// =============================================================================
// Named Domain Assertions
// =============================================================================

func assertSuccessfulResponse(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "Should return HTTP 200 OK")
}

func assertMetricsOrderedMostRecentFirst(t *testing.T, metrics []api.Metric) {
	t.Helper()

	for i := 0; i < len(metrics)-1; i++ {
		current, err := time.Parse(time.RFC3339, metrics[i].Timestamp)
		require.NoError(t, err)
		next, err := time.Parse(time.RFC3339, metrics[i+1].Timestamp)
		require.NoError(t, err)
		assert.True(t, current.After(next), "run %d (%s) should be newer than run %d (%s)", i, current, i+1, next)
	}
}

func assertAllMetricsHaveCutoffs(t *testing.T, metrics []api.Metric) {
	t.Helper()

	for i, m := range metrics {
		require.NotEmpty(t, m.Concentration, "run %d should carry concentration values", i)
		for j := 1; j < len(m.Concentration); j++ {
			assert.Less(t, m.Concentration[j-1].Cutoff, m.Concentration[j].Cutoff, "cutoffs of run %d should ascend", i)
		}
	}
}

func assertDeltaWallets(t *testing.T, deltas []api.WalletDelta, wallets ...string) {
	t.Helper()

	got := make([]string, len(deltas))
	for i, d := range deltas {
		got[i] = d.Wallet
	}
	assert.Equal(t, wallets, got)
}

func assertDeltaChanges(t *testing.T, deltas []api.WalletDelta, changes ...string) {
	t.Helper()

	got := make([]string, len(deltas))
	for i, d := range deltas {
		got[i] = d.Change
	}
	assert.Equal(t, changes, got)
}

func assertPaginationLinksAbsent(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Empty(t, resp.Header.Get("Link"), "Should omit Link header when all results fit on first page")
}

func assertContainsLink(t *testing.T, resp *http.Response, rel string) {
	t.Helper()
	assert.Contains(t, resp.Header.Get("Link"), fmt.Sprintf(`rel="%s"`, rel))
}

func assertMissingLink(t *testing.T, resp *http.Response, rel string) {
	t.Helper()
	assert.NotContains(t, resp.Header.Get("Link"), fmt.Sprintf(`rel="%s"`, rel))
}

// =============================================================================
// Utility Functions
// =============================================================================

func parseJSONResponse[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var result T
	err := json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err, "Response should be valid JSON")

	return result
}

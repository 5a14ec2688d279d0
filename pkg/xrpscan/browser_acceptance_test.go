//go:build acceptance

package xrpscan_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/pkg/clock"
	"github.com/MateoVillarinos/xrprich/pkg/xrpscan"
	"github.com/MateoVillarinos/xrprich/pkg/xrpscan/testcfg"
	"github.com/MateoVillarinos/xrprich/scraper"
)

func TestBrowserAgainstFixturePage(t *testing.T) {
	t.Parallel()

	testCfg := testcfg.New()

	// Arrange
	server := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	t.Cleanup(server.Close)

	browser := xrpscan.NewBrowser(xrpscan.Config{
		URL:        server.URL + "/balances.html",
		Headless:   testCfg.Headless,
		RowTimeout: testCfg.RowTimeout,
		ExecPath:   testCfg.ExecPath,
	}, nil)

	src, closeSrc, err := browser.Open(t.Context())
	require.NoError(t, err)
	t.Cleanup(closeSrc)

	// Act
	res := scraper.NewPaginator(clock.SystemClock{}, 0, 0).Paginate(t.Context(), src, nil)

	// Assert
	require.NoError(t, res.Err)
	assert.Equal(t, scraper.StopNoNextPage, res.Reason)
	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Records, 3)
	assert.Equal(t, scraper.WalletRecord{Rank: 1, Wallet: "rWhale", Owner: "Exchange", Balance: 30_000_000_000, Percentage: ptrFloat(30)}, res.Records[0])
	assert.Equal(t, uint64(5_000_000_000), res.Records[1].Locked)
	assert.Equal(t, "rSmall", res.Records[2].Wallet)
}

func ptrFloat(f float64) *float64 { return &f }

package xrpscan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/pkg/xrpscan"
	"github.com/MateoVillarinos/xrprich/scraper"
)

func TestToRawRows(t *testing.T) {
	t.Parallel()

	t.Run("it keeps link and money labels", func(t *testing.T) {
		t.Parallel()

		// Arrange
		rows := [][]xrpscan.Cell{{
			{Text: " 1 "},
			{Text: "rWhale\n", Link: ptr(" rWhale ")},
			{Text: ""},
			{Text: "Exchange"},
			{Text: "30,000,000,000 XRP", Money: ptr("30,000,000,000")},
			{Text: "0 XRP", Money: ptr("0")},
			{Text: "30.00%"},
		}}

		// Act
		got := xrpscan.ToRawRows(rows)

		// Assert
		require.Len(t, got, 1)
		require.Len(t, got[0], 7)
		assert.Equal(t, "1", got[0][0].Text)
		require.NotNil(t, got[0][1].Link)
		assert.Equal(t, "rWhale", *got[0][1].Link)
		assert.Nil(t, got[0][3].Link)
		require.NotNil(t, got[0][4].Money)
		assert.Equal(t, "30,000,000,000", *got[0][4].Money)
	})

	t.Run("it produces rows the parser accepts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		rows := [][]xrpscan.Cell{{
			{Text: "2"}, {Text: "rFund", Link: ptr("rFund")}, {Text: ""}, {Text: ""},
			{Text: "1,000 XRP", Money: ptr("1,000")}, {Text: "500 XRP", Money: ptr("500")},
		}}

		// Act
		rec, err := scraper.ParseRow(xrpscan.ToRawRows(rows)[0])

		// Assert
		require.NoError(t, err)
		assert.Equal(t, scraper.WalletRecord{Rank: 2, Wallet: "rFund", Balance: 1000, Locked: 500}, rec)
	})

	t.Run("it returns no rows for an empty table", func(t *testing.T) {
		t.Parallel()

		// Act & Assert
		assert.Empty(t, xrpscan.ToRawRows(nil))
	})
}

func TestParseAdvance(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		outcome string
		want    bool
		wantErr error
	}{
		{outcome: "clicked", want: true},
		{outcome: "missing", want: false},
		{outcome: "disabled", want: false},
		{outcome: "", wantErr: xrpscan.ErrUnknownAdvance},
	}

	for _, tc := range testCases {
		t.Run(tc.outcome, func(t *testing.T) {
			t.Parallel()

			// Act
			got, err := xrpscan.ParseAdvance(tc.outcome)

			// Assert
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.want, got)
		})
	}
}

func ptr(s string) *string { return &s }

package rich_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/web/rich"
)

func TestNewMetricsCriteria(t *testing.T) {
	t.Parallel()

	t.Run("zero values use defaults", func(t *testing.T) {
		t.Parallel()

		// Act
		criteria, err := rich.NewMetricsCriteria(0, 0, 0)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(0), criteria.Year.Uint64())
		assert.Equal(t, uint64(rich.DefaultPage), criteria.Page.Uint64())
		assert.Equal(t, uint64(rich.DefaultPerPage), criteria.ItemsPerPage())
		assert.Equal(t, uint64(0), criteria.ItemsToSkip())
	})

	t.Run("it computes the page window", func(t *testing.T) {
		t.Parallel()

		// Act
		criteria, err := rich.NewMetricsCriteria(2025, 3, 25)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(2025), criteria.Year.Uint64())
		assert.Equal(t, uint64(25), criteria.ItemsPerPage())
		assert.Equal(t, uint64(50), criteria.ItemsToSkip())
	})

	testCases := []struct {
		name        string
		year        uint64
		perPage     uint64
		expectedErr error
	}{
		{name: "year before ledger genesis", year: 2011, perPage: 10, expectedErr: rich.ErrInvalidYear},
		{name: "per_page exceeds maximum", year: 2025, perPage: rich.MaxPerPage + 1, expectedErr: rich.ErrInvalidPerPage},
		{name: "year is validated first", year: 1999, perPage: 999, expectedErr: rich.ErrInvalidYear},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act
			criteria, err := rich.NewMetricsCriteria(tc.year, 1, tc.perPage)

			// Assert
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, rich.MetricsCriteria{}, criteria, "Should return zero value on error")
		})
	}
}

func TestNewDeltasCriteria(t *testing.T) {
	t.Parallel()

	t.Run("it accepts the maximum page size", func(t *testing.T) {
		t.Parallel()

		// Act
		criteria, err := rich.NewDeltasCriteria(2, rich.MaxPerPage)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(rich.MaxPerPage), criteria.ItemsToSkip())
	})

	t.Run("it rejects oversized pages", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := rich.NewDeltasCriteria(1, 999)

		// Assert
		assert.ErrorIs(t, err, rich.ErrInvalidPerPage)
		assert.ErrorIs(t, err, rich.ErrPerPageTooLarge)
	})
}

func TestTrim(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		items    []int
		page     rich.Page
		wantLen  int
		wantNext bool
		wantPrev bool
	}{
		{name: "look-ahead item signals another page", items: []int{1, 2, 3}, page: 1, wantLen: 2, wantNext: true},
		{name: "exactly one page has no next", items: []int{1, 2}, page: 1, wantLen: 2},
		{name: "later pages link back", items: []int{1}, page: 4, wantLen: 1, wantPrev: true},
		{name: "empty page", items: nil, page: 1, wantLen: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act
			items, info := rich.Trim(tc.items, rich.Pagination{Page: tc.page, Size: 2})

			// Assert
			assert.Len(t, items, tc.wantLen)
			assert.Equal(t, tc.wantNext, info.HasNext())
			assert.Equal(t, tc.wantPrev, info.HasPrevious())
			assert.Equal(t, int(tc.page), info.PageNumber())
			assert.Equal(t, 2, info.PageSize())
		})
	}
}

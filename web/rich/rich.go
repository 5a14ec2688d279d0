// Package rich holds the read model served by the web API: concentration
// history and the wallet deltas between the two latest snapshots.
package rich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors for criteria construction
var (
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidPerPage = errors.New("invalid per_page")
)

// Concentration is the share of supply held by the top Cutoff wallets
type Concentration struct {
	Cutoff int
	Pct    decimal.Decimal
}

// MetricPoint is the metric set of one run
type MetricPoint struct {
	Timestamp        time.Time
	Concentration    []Concentration // ascending cutoff
	TotalLocked      uint64
	TotalCirculating uint64
	Wallets          int
}

// MetricsCriteria selects runs, newest first
type MetricsCriteria struct {
	Year Year
	Pagination
}

// NewMetricsCriteria creates MetricsCriteria with validation
func NewMetricsCriteria(year, page, perPage uint64) (MetricsCriteria, error) {
	y, err := ParseYear(year)
	if err != nil {
		return MetricsCriteria{}, fmt.Errorf("%w: %w", ErrInvalidYear, err)
	}
	p, err := newPagination(page, perPage)
	if err != nil {
		return MetricsCriteria{}, err
	}
	return MetricsCriteria{Year: y, Pagination: p}, nil
}

// MetricsPage is a page of metric history
type MetricsPage struct {
	Points []MetricPoint
	PageInfo
}

// MetricsFinder queries stored metric history
type MetricsFinder interface {
	FindMetrics(ctx context.Context, criteria MetricsCriteria) (*MetricsPage, error)
}

// WalletDelta is the change of one wallet between two snapshots. Old or
// New is nil when the wallet is missing from that snapshot.
type WalletDelta struct {
	Wallet string
	Owner  string
	Old    *uint64
	New    *uint64
	Change int64
}

// DeltasCriteria selects a page of the latest deltas, largest gain first
type DeltasCriteria struct {
	Pagination
}

// NewDeltasCriteria creates DeltasCriteria with validation
func NewDeltasCriteria(page, perPage uint64) (DeltasCriteria, error) {
	p, err := newPagination(page, perPage)
	if err != nil {
		return DeltasCriteria{}, err
	}
	return DeltasCriteria{Pagination: p}, nil
}

// DeltasPage is a page of deltas between the Previous and Latest snapshots.
// Both names are empty when fewer than two snapshots exist.
type DeltasPage struct {
	Latest   string
	Previous string
	Deltas   []WalletDelta
	PageInfo
}

// DeltasFinder queries wallet deltas
type DeltasFinder interface {
	FindDeltas(ctx context.Context, criteria DeltasCriteria) (*DeltasPage, error)
}

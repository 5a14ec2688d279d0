package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MateoVillarinos/xrprich/scraper/store/dbrow"
	"github.com/MateoVillarinos/xrprich/web/rich"
	webrow "github.com/MateoVillarinos/xrprich/web/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrQueryFailed = errors.New("rich list query failed")
)

// Finder implements the rich list read model using pgx
type Finder struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL finder with an existing connection pool
// Returns the finder and a closer function
func New(pool *pgxpool.Pool) (*Finder, func()) {
	finder := &Finder{pool: pool}
	closer := func() {
		pool.Close()
	}
	return finder, closer
}

// FindMetrics returns a page of runs, newest first, each carrying all its cutoffs
func (f *Finder) FindMetrics(ctx context.Context, criteria rich.MetricsCriteria) (*rich.MetricsPage, error) {
	query, args := NewMetricsQuery().ForCriteria(criteria).Build()

	rows, err := f.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	metricRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[webrow.MetricRow])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	points, info := rich.Trim(groupRuns(metricRows), criteria.Pagination)
	return &rich.MetricsPage{Points: points, PageInfo: info}, nil
}

// groupRuns folds consecutive rows of the same run into one point
func groupRuns(rows []webrow.MetricRow) []rich.MetricPoint {
	var points []rich.MetricPoint
	for _, r := range rows {
		if n := len(points); n == 0 || !points[n-1].Timestamp.Equal(r.TakenAt) {
			points = append(points, rich.MetricPoint{
				Timestamp:        r.TakenAt,
				TotalLocked:      uint64(max(r.TotalLocked, 0)),
				TotalCirculating: uint64(max(r.TotalCirculating, 0)),
				Wallets:          r.Wallets,
			})
		}
		last := &points[len(points)-1]
		last.Concentration = append(last.Concentration, rich.Concentration{
			Cutoff: r.Cutoff,
			Pct:    dbrow.DecimalFromNumeric(r.Pct),
		})
	}
	return points
}

// FindDeltas diffs the two most recent snapshots by name
func (f *Finder) FindDeltas(ctx context.Context, criteria rich.DeltasCriteria) (*rich.DeltasPage, error) {
	rows, err := f.pool.Query(ctx, latestSnapshotsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	if len(names) < 2 {
		_, info := rich.Trim([]rich.WalletDelta{}, criteria.Pagination)
		return &rich.DeltasPage{Deltas: []rich.WalletDelta{}, PageInfo: info}, nil
	}

	query, args := deltasQueryFor(names[0], names[1], criteria.Pagination)
	rows, err = f.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	deltaRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[webrow.DeltaRow])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	deltas := make([]rich.WalletDelta, len(deltaRows))
	for i, r := range deltaRows {
		deltas[i] = rich.WalletDelta{
			Wallet: r.Wallet,
			Owner:  r.Owner,
			Old:    amount(r.OldTotal),
			New:    amount(r.NewTotal),
			Change: r.Change,
		}
	}

	deltas, info := rich.Trim(deltas, criteria.Pagination)
	return &rich.DeltasPage{Latest: names[0], Previous: names[1], Deltas: deltas, PageInfo: info}, nil
}

func amount(v *int64) *uint64 {
	if v == nil {
		return nil
	}
	a := uint64(max(*v, 0))
	return &a
}

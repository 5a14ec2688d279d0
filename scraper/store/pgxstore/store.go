package pgxstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MateoVillarinos/xrprich/scraper"
	"github.com/MateoVillarinos/xrprich/scraper/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrSnapshotUpsert    = errors.New("snapshot upsert failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrMetricsInsert     = errors.New("metrics insert failed")
	ErrQueryFailed       = errors.New("query failed")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
)

// SQL queries
const (
	listSnapshotsSQL = `
		SELECT name FROM snapshots
		WHERE starts_with(name, $1)
		ORDER BY name`

	snapshotTakenAtSQL = `SELECT taken_at FROM snapshots WHERE name = $1`

	walletBalancesSQL = `
		SELECT rank, wallet, owner, balance, locked, percentage::float8 AS percentage
		FROM wallet_balances
		WHERE snapshot_name = $1
		ORDER BY position`

	upsertSnapshotSQL = `
		INSERT INTO snapshots (name, taken_at, record_count) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET taken_at = EXCLUDED.taken_at, record_count = EXCLUDED.record_count`

	clearBalancesSQL = `DELETE FROM wallet_balances WHERE snapshot_name = $1`

	upsertMetricSQL = `
		INSERT INTO concentration_metrics (taken_at, year, cutoff, pct, total_locked, total_circulating, wallets)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (taken_at, cutoff) DO UPDATE SET
			pct = EXCLUDED.pct,
			total_locked = EXCLUDED.total_locked,
			total_circulating = EXCLUDED.total_circulating,
			wallets = EXCLUDED.wallets`

	metricsHistorySQL = `
		SELECT taken_at, cutoff, pct
		FROM concentration_metrics
		ORDER BY taken_at, cutoff`
)

// Store implements scraper.Store interface using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// ListSnapshots returns the stored snapshots whose name starts with prefix
func (s *Store) ListSnapshots(ctx context.Context, prefix string) ([]scraper.SnapshotRef, error) {
	rows, err := s.pool.Query(ctx, listSnapshotsSQL, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	refs := make([]scraper.SnapshotRef, len(names))
	for i, name := range names {
		refs[i] = scraper.SnapshotRef{ID: name, Name: name}
	}
	return refs, nil
}

// ReadSnapshot loads a snapshot and its balances in scrape order
func (s *Store) ReadSnapshot(ctx context.Context, id string) (scraper.Snapshot, error) {
	var takenAt time.Time
	err := s.pool.QueryRow(ctx, snapshotTakenAtSQL, id).Scan(&takenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return scraper.Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return scraper.Snapshot{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	rows, err := s.pool.Query(ctx, walletBalancesSQL, id)
	if err != nil {
		return scraper.Snapshot{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	balances, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.WalletBalance])
	if err != nil {
		return scraper.Snapshot{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	records := make([]scraper.WalletRecord, len(balances))
	for i, b := range balances {
		records[i] = b.Record()
	}

	return scraper.Snapshot{Timestamp: takenAt, Records: records}, nil
}

// WriteSnapshot replaces the snapshot stored under name in one transaction.
// Balances are bulk loaded with CopyFrom.
func (s *Store) WriteSnapshot(ctx context.Context, snap scraper.Snapshot, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	if _, err := tx.Exec(ctx, upsertSnapshotSQL, name, snap.Timestamp, len(snap.Records)); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotUpsert, err)
	}
	if _, err := tx.Exec(ctx, clearBalancesSQL, name); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotUpsert, err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"wallet_balances"},
		dbrow.WalletBalanceColumns,
		pgx.CopyFromRows(dbrow.WalletRecordsToRows(name, snap.Records)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return nil
}

// WriteMetrics upserts one row per cutoff. The name is not stored: rows are
// keyed by their timestamp. The year column follows the timestamp's own
// location, which is the run's configured zone.
func (s *Store) WriteMetrics(ctx context.Context, summary scraper.Summary, _ string) error {
	m := summary.Metrics

	batch := &pgx.Batch{}
	for _, c := range m.Concentration {
		batch.Queue(upsertMetricSQL,
			m.Timestamp,
			m.Timestamp.Year(),
			c.Cutoff,
			dbrow.NumericFromDecimal(c.Pct),
			int64(summary.TotalLocked),
			int64(summary.TotalCirculating),
			summary.Wallets,
		)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrMetricsInsert, err)
	}
	return nil
}

// MetricsHistory returns every stored metric set, oldest first
func (s *Store) MetricsHistory(ctx context.Context) ([]scraper.MetricSet, error) {
	rows, err := s.pool.Query(ctx, metricsHistorySQL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	metrics, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Metric])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	var history []scraper.MetricSet
	for _, m := range metrics {
		if n := len(history); n == 0 || !history[n-1].Timestamp.Equal(m.TakenAt) {
			history = append(history, scraper.MetricSet{Timestamp: m.TakenAt})
		}
		last := &history[len(history)-1]
		last.Concentration = append(last.Concentration, scraper.Concentration{
			Cutoff: m.Cutoff,
			Pct:    dbrow.DecimalFromNumeric(m.Pct),
		})
	}
	return history, nil
}

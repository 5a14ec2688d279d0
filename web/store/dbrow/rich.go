package dbrow

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// MetricRow is one cutoff of one run as joined from concentration_metrics
type MetricRow struct {
	TakenAt          time.Time      `db:"taken_at"`
	Cutoff           int            `db:"cutoff"`
	Pct              pgtype.Numeric `db:"pct"`
	TotalLocked      int64          `db:"total_locked"`
	TotalCirculating int64          `db:"total_circulating"`
	Wallets          int            `db:"wallets"`
}

// DeltaRow is one wallet of the full outer join between two snapshots
type DeltaRow struct {
	Wallet   string `db:"wallet"`
	Owner    string `db:"owner"`
	OldTotal *int64 `db:"old_total"`
	NewTotal *int64 `db:"new_total"`
	Change   int64  `db:"change"`
}

package dbrow

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/MateoVillarinos/xrprich/scraper"
)

// WalletBalanceColumns lists the wallet_balances columns in CopyFrom order
var WalletBalanceColumns = []string{"snapshot_name", "position", "rank", "wallet", "owner", "balance", "locked", "percentage"}

// WalletBalance represents one wallet_balances row as read back from the database
type WalletBalance struct {
	Rank       int      `db:"rank"`
	Wallet     string   `db:"wallet"`
	Owner      string   `db:"owner"`
	Balance    int64    `db:"balance"`
	Locked     int64    `db:"locked"`
	Percentage *float64 `db:"percentage"`
}

// Record converts the row into the scraper domain model
func (b WalletBalance) Record() scraper.WalletRecord {
	return scraper.WalletRecord{
		Rank:       b.Rank,
		Wallet:     b.Wallet,
		Owner:      b.Owner,
		Balance:    uint64(max(b.Balance, 0)),
		Locked:     uint64(max(b.Locked, 0)),
		Percentage: b.Percentage,
	}
}

// Metric represents one concentration_metrics row
type Metric struct {
	TakenAt time.Time      `db:"taken_at"`
	Cutoff  int            `db:"cutoff"`
	Pct     pgtype.Numeric `db:"pct"`
}

// WalletRecordsToRows converts scraper records directly to [][]any for pgx.CopyFromRows
func WalletRecordsToRows(snapshot string, records []scraper.WalletRecord) [][]any {
	rows := make([][]any, len(records))

	for i, r := range records {
		rows[i] = []any{
			snapshot,
			i + 1,
			r.Rank,
			r.Wallet,
			r.Owner,
			int64(r.Balance),
			int64(r.Locked),
			r.Percentage,
		}
	}

	return rows
}

// NumericFromDecimal converts a decimal into the pgx NUMERIC representation
func NumericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// DecimalFromNumeric converts a NUMERIC back into a decimal; NULL becomes zero
func DecimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

package scraper

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Aggregate derives the concentration metrics and supply totals of records.
// Records must already be ordered by descending total balance, which the
// explorer guarantees through its own sort.
func Aggregate(records []WalletRecord, supply uint64, cutoffs []int, ts time.Time) Summary {
	summary := Summary{
		Metrics: MetricSet{
			Timestamp:     ts,
			Concentration: make([]Concentration, 0, len(cutoffs)),
		},
		Wallets: len(records),
	}

	for _, r := range records {
		summary.TotalLocked += r.Locked
		summary.TotalCirculating += r.Balance
	}

	for _, k := range cutoffs {
		summary.Metrics.Concentration = append(summary.Metrics.Concentration, Concentration{
			Cutoff: k,
			Pct:    ConcentrationPct(records, k, supply).Round(2),
		})
	}

	return summary
}

// ConcentrationPct returns, at full precision, the percentage of supply held
// by the first min(k, len(records)) records.
func ConcentrationPct(records []WalletRecord, k int, supply uint64) decimal.Decimal {
	if supply == 0 || k <= 0 {
		return decimal.Zero
	}

	n := min(k, len(records))
	var held uint64
	for _, r := range records[:n] {
		held += r.Total()
	}

	return decimal.NewFromUint64(held).
		Div(decimal.NewFromUint64(supply)).
		Mul(hundred)
}

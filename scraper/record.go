package scraper

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletRecord is one parsed row of the rich list
type WalletRecord struct {
	Rank       int
	Wallet     string
	Owner      string
	Balance    uint64
	Locked     uint64
	Percentage *float64 // nil when the cell could not be parsed
}

// Total returns the spendable plus locked balance
func (r WalletRecord) Total() uint64 {
	return r.Balance + r.Locked
}

// Snapshot is one full scrape of the rich list at minute precision.
// Records are kept in the order the explorer presented them.
type Snapshot struct {
	Timestamp time.Time
	Records   []WalletRecord
}

// Concentration is the share of total supply held by the top Cutoff wallets
type Concentration struct {
	Cutoff int
	Pct    decimal.Decimal // percentage, rounded to two decimals
}

// MetricSet holds the concentration percentages derived from one Snapshot
type MetricSet struct {
	Timestamp     time.Time
	Concentration []Concentration
}

// Pct returns the percentage recorded for cutoff
func (m MetricSet) Pct(cutoff int) (decimal.Decimal, bool) {
	for _, c := range m.Concentration {
		if c.Cutoff == cutoff {
			return c.Pct, true
		}
	}
	return decimal.Zero, false
}

// Summary is a MetricSet plus the supply totals reported alongside it
type Summary struct {
	Metrics          MetricSet
	TotalLocked      uint64
	TotalCirculating uint64
	Wallets          int
}

// WalletDelta is the change of one wallet's total balance between two snapshots
type WalletDelta struct {
	Wallet string
	Owner  string
	Old    *uint64 // nil when the wallet is absent from the older snapshot
	New    *uint64 // nil when the wallet is absent from the newer snapshot
	Change int64
}

// SnapshotRef identifies a stored snapshot
type SnapshotRef struct {
	ID   string
	Name string
}

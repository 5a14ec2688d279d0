package scraper

import (
	"cmp"
	"slices"
)

// MetricsChanged reports whether cur differs from prior. A missing prior
// always counts as a change. Percentages are compared exactly, so any
// difference between the rounded values is a change.
func MetricsChanged(cur MetricSet, prior *MetricSet) bool {
	if prior == nil {
		return true
	}
	if len(cur.Concentration) != len(prior.Concentration) {
		return true
	}
	for _, c := range cur.Concentration {
		p, ok := prior.Pct(c.Cutoff)
		if !ok || !p.Equal(c.Pct) {
			return true
		}
	}
	return false
}

// DiffSnapshots joins cur and old on wallet address and returns the wallets
// whose total balance changed, largest increase first. A wallet missing from
// one side counts as a zero balance there. The owner label of the old
// snapshot wins over the new one.
func DiffSnapshots(cur, old Snapshot) []WalletDelta {
	oldByWallet := indexByWallet(old.Records)
	curByWallet := indexByWallet(cur.Records)

	var deltas []WalletDelta
	for _, r := range uniqueRecords(cur.Records) {
		newTotal := r.Total()
		d := WalletDelta{Wallet: r.Wallet, Owner: r.Owner, New: &newTotal}
		if o, ok := oldByWallet[r.Wallet]; ok {
			oldTotal := o.Total()
			d.Old = &oldTotal
			if o.Owner != "" {
				d.Owner = o.Owner
			}
		}
		d.Change = change(d.Old, d.New)
		if d.Change != 0 {
			deltas = append(deltas, d)
		}
	}

	for _, o := range uniqueRecords(old.Records) {
		if _, ok := curByWallet[o.Wallet]; ok {
			continue
		}
		oldTotal := o.Total()
		d := WalletDelta{Wallet: o.Wallet, Owner: o.Owner, Old: &oldTotal}
		d.Change = change(d.Old, d.New)
		if d.Change != 0 {
			deltas = append(deltas, d)
		}
	}

	slices.SortStableFunc(deltas, func(a, b WalletDelta) int {
		if c := cmp.Compare(b.Change, a.Change); c != 0 {
			return c
		}
		return cmp.Compare(a.Wallet, b.Wallet)
	})

	return deltas
}

func change(old, cur *uint64) int64 {
	var o, n int64
	if old != nil {
		o = int64(*old)
	}
	if cur != nil {
		n = int64(*cur)
	}
	return n - o
}

// indexByWallet keeps the first record of each wallet
func indexByWallet(records []WalletRecord) map[string]WalletRecord {
	idx := make(map[string]WalletRecord, len(records))
	for _, r := range records {
		if _, seen := idx[r.Wallet]; !seen {
			idx[r.Wallet] = r
		}
	}
	return idx
}

func uniqueRecords(records []WalletRecord) []WalletRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]WalletRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Wallet]; ok {
			continue
		}
		seen[r.Wallet] = struct{}{}
		out = append(out, r)
	}
	return out
}

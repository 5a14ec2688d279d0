package scraper

import (
	"context"
	"time"
)

// StopReason explains why pagination ended. None of them is an error:
// the caller always receives whatever was accumulated.
type StopReason string

const (
	StopNoNextPage StopReason = "no next page"
	StopEmptyPage  StopReason = "empty page"
	StopNoProgress StopReason = "page did not advance"
	StopFetchError StopReason = "fetch error"
	StopPageLimit  StopReason = "page limit reached"
	StopCancelled  StopReason = "cancelled"
)

// PaginationResult is the outcome of one pagination pass
type PaginationResult struct {
	Records   []WalletRecord
	Pages     int
	Malformed int
	Reason    StopReason
	Err       error
}

// Paginator walks the balance table page by page
// ----------------------------------------------
type Paginator struct {
	clock       Clock
	settleDelay time.Duration
	maxPages    int
}

// NewPaginator creates a Paginator. settleDelay is waited after every
// successful page advance; maxPages <= 0 means no limit.
func NewPaginator(clock Clock, settleDelay time.Duration, maxPages int) *Paginator {
	return &Paginator{
		clock:       clock,
		settleDelay: settleDelay,
		maxPages:    maxPages,
	}
}

// Paginate reads every page of src in order. Each page is fully extracted
// before the source is advanced. onPage, when not nil, is called after each
// accepted page.
func (p *Paginator) Paginate(ctx context.Context, src PageSource, onPage func(PageScraped)) PaginationResult {
	var (
		res       PaginationResult
		prevFirst string
	)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return res.stop(StopCancelled, err)
		}

		rows, err := src.CurrentRows(ctx)
		if err != nil {
			return res.stop(StopFetchError, err)
		}

		records, malformed := parseRows(rows)
		if page > 1 {
			if len(records) == 0 {
				return res.stop(StopEmptyPage, nil)
			}
			if records[0].Wallet == prevFirst {
				return res.stop(StopNoProgress, nil)
			}
		}

		// unparseable ranks fall back to the scrape position
		for i := range records {
			if records[i].Rank == 0 {
				records[i].Rank = len(res.Records) + i + 1
			}
		}

		res.Pages = page
		res.Malformed += malformed
		res.Records = append(res.Records, records...)
		if len(records) > 0 {
			prevFirst = records[0].Wallet
		}
		if onPage != nil {
			onPage(PageScraped{Page: page, Rows: len(records), Malformed: malformed})
		}

		if p.maxPages > 0 && page >= p.maxPages {
			return res.stop(StopPageLimit, nil)
		}

		advanced, err := src.AdvancePage(ctx)
		if err != nil {
			return res.stop(StopFetchError, err)
		}
		if !advanced {
			return res.stop(StopNoNextPage, nil)
		}

		select {
		case <-ctx.Done():
			return res.stop(StopCancelled, ctx.Err())
		case <-p.clock.After(p.settleDelay):
		}
	}
}

func (r PaginationResult) stop(reason StopReason, err error) PaginationResult {
	r.Reason = reason
	r.Err = err
	return r
}

func parseRows(rows []RawRow) ([]WalletRecord, int) {
	records := make([]WalletRecord, 0, len(rows))
	malformed := 0
	for _, row := range rows {
		// header rows carry no data cells
		if len(row) == 0 {
			continue
		}
		rec, err := ParseRow(row)
		if err != nil {
			malformed++
			continue
		}
		records = append(records, rec)
	}
	return records, malformed
}

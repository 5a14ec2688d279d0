package scraper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column layout of the balances table
const (
	colRank       = 0
	colWallet     = 1
	colOwner      = 3
	colBalance    = 4
	colLocked     = 5
	colPercentage = 6

	minColumns = colLocked + 1
)

var numericNoise = strings.NewReplacer(",", "", "XRP", "", "%", "")

// ParseRow converts one raw table row into a WalletRecord.
// Balances that cannot be parsed resolve to 0 while an unparseable
// percentage resolves to nil. A rank that cannot be parsed is left at 0.
func ParseRow(row RawRow) (WalletRecord, error) {
	if len(row) < minColumns {
		return WalletRecord{}, fmt.Errorf("%w: %d cells, want at least %d", ErrMalformedRow, len(row), minColumns)
	}

	rec := WalletRecord{
		Rank:    parseRank(row[colRank].Text),
		Wallet:  linkOrText(row[colWallet]),
		Owner:   strings.TrimSpace(row[colOwner].Text),
		Balance: ParseAmount(moneyOrText(row[colBalance])),
		Locked:  ParseAmount(moneyOrText(row[colLocked])),
	}
	if len(row) > colPercentage {
		rec.Percentage = ParsePercentage(row[colPercentage].Text)
	}

	return rec, nil
}

// ParseAmount parses a whole XRP amount such as "1,234,567 XRP".
// Anything else, including fractional and negative amounts, yields 0.
func ParseAmount(s string) uint64 {
	v, err := strconv.ParseUint(cleanNumber(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParsePercentage parses a cell such as "1.2345%" rounded to two decimals.
// It returns nil when the text is not a number.
func ParsePercentage(s string) *float64 {
	s = cleanNumber(s)
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	rounded := math.Round(v*100) / 100
	return &rounded
}

func parseRank(s string) int {
	rank, err := strconv.Atoi(cleanNumber(s))
	if err != nil || rank < 1 {
		return 0
	}
	return rank
}

func linkOrText(c RawCell) string {
	if c.Link != nil && strings.TrimSpace(*c.Link) != "" {
		return strings.TrimSpace(*c.Link)
	}
	return strings.TrimSpace(c.Text)
}

func moneyOrText(c RawCell) string {
	if c.Money != nil {
		return *c.Money
	}
	return c.Text
}

// cleanNumber drops thousands separators, unit suffixes and all whitespace
func cleanNumber(s string) string {
	return strings.Join(strings.Fields(numericNoise.Replace(s)), "")
}

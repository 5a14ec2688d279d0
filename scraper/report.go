package scraper

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultTopMovers is how many wallet deltas the summary lists per direction
const DefaultTopMovers = 3

// FormatSummary renders the report text sent after a changed run
func FormatSummary(s Summary, deltas []WalletDelta, topMovers int) string {
	var b strings.Builder
	printer := message.NewPrinter(language.English)

	b.WriteString("XRP Rich List Report\n")
	b.WriteString(Stamp(s.Metrics.Timestamp) + "\n")
	b.WriteString(printer.Sprintf("Wallets: %d\n", s.Wallets))
	b.WriteString(printer.Sprintf("Locked: %d XRP\n", s.TotalLocked))
	b.WriteString(printer.Sprintf("Circulating: %d XRP\n", s.TotalCirculating))
	for _, c := range s.Metrics.Concentration {
		b.WriteString(printer.Sprintf("Top %d: %s%%\n", c.Cutoff, c.Pct.StringFixed(2)))
	}

	if len(deltas) == 0 {
		return strings.TrimSuffix(b.String(), "\n")
	}

	b.WriteString(printer.Sprintf("Wallets changed: %d\n", len(deltas)))
	for _, d := range topMoves(deltas, topMovers) {
		b.WriteString(formatDelta(printer, d) + "\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// FormatNoData renders the notification sent when a run scraped nothing
func FormatNoData(ts time.Time) string {
	return "XRP Rich List Report\n" + Stamp(ts) + "\nNo data obtained from the explorer."
}

// topMoves picks up to n increases from the head and n decreases from the
// tail of deltas, which are sorted by change descending.
func topMoves(deltas []WalletDelta, n int) []WalletDelta {
	if n <= 0 {
		return nil
	}

	var out []WalletDelta
	for _, d := range deltas {
		if d.Change <= 0 || len(out) == n {
			break
		}
		out = append(out, d)
	}

	ups := len(out)
	for i := len(deltas) - 1; i >= 0 && len(out)-ups < n; i-- {
		if deltas[i].Change >= 0 {
			break
		}
		out = append(out, deltas[i])
	}

	return out
}

func formatDelta(printer *message.Printer, d WalletDelta) string {
	sign := ""
	if d.Change > 0 {
		sign = "+"
	}

	line := sign + printer.Sprintf("%d XRP %s", d.Change, d.Wallet)
	if d.Owner != "" {
		line += " (" + d.Owner + ")"
	}
	return line
}

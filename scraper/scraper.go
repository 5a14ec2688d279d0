package scraper

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for failure cases
var (
	ErrMalformedRow       = errors.New("malformed row")
	ErrBrowserOpen        = errors.New("browser session failed")
	ErrRunCancelled       = errors.New("run cancelled before the scrape finished")
	ErrPriorLookup        = errors.New("prior snapshot lookup failed")
	ErrPriorRead          = errors.New("prior snapshot read failed")
	ErrSnapshotWrite      = errors.New("snapshot write failed")
	ErrMetricsWrite       = errors.New("metrics write failed")
	ErrMetricsHistory     = errors.New("metrics history read failed")
	ErrDeltaReport        = errors.New("delta report write failed")
	ErrChartRender        = errors.New("chart render failed")
	ErrNotificationFailed = errors.New("notification failed")
	ErrInvalidTimestamp   = errors.New("invalid snapshot timestamp")
)

// Default configuration values
const (
	DefaultTotalSupply = uint64(100_000_000_000)
	DefaultSettleDelay = 3 * time.Second
	// StampLayout is the sortable timestamp embedded in artifact names
	StampLayout = "2006-01-02_15-04"
)

// DefaultCutoffs are the top-N ranks the concentration metrics are computed for
var DefaultCutoffs = []int{10, 100, 1000, 10000}

// RawCell is the text content of one table cell
// ---------------------------------------------
// Link and Money hold the label of a nested hyperlink and of a nested money
// element when the cell has one.
type RawCell struct {
	Text  string
	Link  *string
	Money *string
}

// RawRow is one table row addressed by column index
type RawRow []RawCell

// PageSource is a pull-based view over the paginated balance table
type PageSource interface {
	// CurrentRows returns the rows of the page currently displayed.
	// Implementations wait until rows are present before reading them.
	CurrentRows(ctx context.Context) ([]RawRow, error)
	// AdvancePage moves to the next page. It returns false when there is
	// no next page (control missing or disabled).
	AdvancePage(ctx context.Context) (bool, error)
}

// Browser opens one page source session per run
type Browser interface {
	Open(ctx context.Context) (PageSource, func(), error)
}

// SnapshotStore persists and retrieves dated snapshots
// ----------------------------------------------------
type SnapshotStore interface {
	// ListSnapshots returns the stored snapshots whose name starts with prefix
	ListSnapshots(ctx context.Context, prefix string) ([]SnapshotRef, error)
	// ReadSnapshot loads the snapshot identified by id
	ReadSnapshot(ctx context.Context, id string) (Snapshot, error)
	// WriteSnapshot stores snap under name
	WriteSnapshot(ctx context.Context, snap Snapshot, name string) error
}

// MetricsStore persists the concentration history
type MetricsStore interface {
	WriteMetrics(ctx context.Context, summary Summary, name string) error
	// MetricsHistory returns every stored MetricSet, oldest first
	MetricsHistory(ctx context.Context) ([]MetricSet, error)
}

// Store is the full persistence contract used by the pipeline
type Store interface {
	SnapshotStore
	MetricsStore
}

// DeltaReporter writes a delta report artifact and returns its path
type DeltaReporter interface {
	WriteDeltaReport(ctx context.Context, deltas []WalletDelta, name string) (string, error)
}

// ChartRenderer draws the metric history into an image at path
type ChartRenderer interface {
	Render(history []MetricSet, path string) error
}

// Notifier sends report payloads to a messaging or email endpoint
type Notifier interface {
	SendText(ctx context.Context, message string) error
	SendImage(ctx context.Context, path string) error
	SendFile(ctx context.Context, path string) error
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Schedule yields the next activation time after a given time
type Schedule interface {
	Next(time.Time) time.Time
}

// Event represents a service lifecycle event
// ------------------------------------------
type Event any

type RunStarted struct {
	StartedAt time.Time
	Timestamp time.Time
}

type PageScraped struct {
	Page      int
	Rows      int
	Malformed int
}

type PaginationStopped struct {
	Pages   int
	Records int
	Reason  StopReason
	Err     error // set when a fetch or navigation error ended the loop
}

type NoData struct {
	Timestamp time.Time
}

type RunUnchanged struct {
	Timestamp time.Time
	Prior     string
}

type SnapshotPersisted struct {
	Target  string
	Name    string
	Records int
}

type PersistFailed struct {
	Target string
	Err    error
}

type ChartFailed struct {
	Err error
}

type NotifyFailed struct {
	Err error
}

type RunCompleted struct {
	Summary  Summary
	Deltas   int
	Prior    string
	Duration time.Duration
}

type RunFailed struct {
	Err error
}

type ScheduleStarted struct {
	Next time.Time
}

type ScheduleShutdown struct {
	Reason error // Why shutdown occurred (ctx.Err())
}

package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/MateoVillarinos/xrprich/pkg/clock"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithSchedule repeats the run at every activation of sched
func WithSchedule(sched Schedule) Option {
	return func(s *Service) { s.schedule = sched }
}

// WithSettleDelay sets the wait applied after each page advance
func WithSettleDelay(d time.Duration) Option {
	return func(s *Service) { s.settleDelay = d }
}

// WithMaxPages caps the number of pages read per run (0 means no cap)
func WithMaxPages(n int) Option {
	return func(s *Service) { s.maxPages = n }
}

// WithTotalSupply sets the denominator of the concentration metrics
func WithTotalSupply(supply uint64) Option {
	return func(s *Service) { s.supply = supply }
}

// WithCutoffs sets the top-N ranks the metrics are computed for
func WithCutoffs(cutoffs ...int) Option {
	return func(s *Service) { s.cutoffs = cutoffs }
}

// WithNamer replaces the artifact naming strategy
func WithNamer(n Namer) Option {
	return func(s *Service) { s.namer = n }
}

// WithLocation sets the time zone of the run timestamps
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithMirror adds a store that receives a copy of every persisted run.
// Mirror failures never affect the primary store or the notification.
func WithMirror(name string, store Store) Option {
	return func(s *Service) { s.mirrors = append(s.mirrors, mirror{name: name, store: store}) }
}

// WithDeltaReporter enables the delta report attachment
func WithDeltaReporter(r DeltaReporter) Option {
	return func(s *Service) { s.reporter = r }
}

// WithChart enables the metric history chart, written into dir
func WithChart(r ChartRenderer, dir string) Option {
	return func(s *Service) {
		s.chart = r
		s.chartDir = dir
	}
}

// WithTopMovers sets how many deltas per direction the summary lists
func WithTopMovers(n int) Option {
	return func(s *Service) { s.topMovers = n }
}

type mirror struct {
	name  string
	store Store
}

// Service runs the scrape, aggregate, diff and notify pipeline
// -------------------------------------------------------------
type Service struct {
	browser     Browser
	store       Store
	notifier    Notifier
	clock       Clock
	schedule    Schedule
	settleDelay time.Duration
	maxPages    int
	supply      uint64
	cutoffs     []int
	namer       Namer
	loc         *time.Location
	mirrors     []mirror
	reporter    DeltaReporter
	chart       ChartRenderer
	chartDir    string
	topMovers   int
	events      chan Event
}

// NewService constructs a Service with required dependencies and options
// ---------------------------------------------------------------------
// By default it runs once, uses a real clock, the 3s settle delay, the fixed
// XRP supply and the 10/100/1000/10000 cutoffs.
func NewService(browser Browser, store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		browser:     browser,
		store:       store,
		notifier:    notifier,
		clock:       clock.SystemClock{},
		settleDelay: DefaultSettleDelay,
		supply:      DefaultTotalSupply,
		cutoffs:     DefaultCutoffs,
		namer:       DefaultNamer,
		loc:         time.UTC,
		topMovers:   DefaultTopMovers,
		events:      make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the pipeline and returns the events channel and done channel.
//
// Without a schedule the pipeline runs once and then closes both channels.
// With a schedule it runs once immediately and again at every activation
// until the context is cancelled. Runs never overlap.
//
// Example:
//
//	events, done := service.Start(ctx)
//	closer := scraper.NewSubscriber(events, scraper.OnRunCompleted(...))
//	defer closer()
//	<-done
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(s.events)
		defer close(done)
		s.run(ctx)
	}()
	return s.events, done
}

// run executes the first run and then follows the schedule, if any
func (s *Service) run(ctx context.Context) {
	s.runOnce(ctx)

	if s.schedule == nil {
		return
	}

	for {
		now := s.clock.Now()
		next := s.schedule.Next(now)
		s.events <- ScheduleStarted{Next: next}

		select {
		case <-ctx.Done():
			s.events <- ScheduleShutdown{Reason: ctx.Err()}
			return
		case <-s.clock.After(next.Sub(now)):
			s.runOnce(ctx)
		}
	}
}

// runOnce is one pass of the pipeline state machine
func (s *Service) runOnce(ctx context.Context) {
	startedAt := s.clock.Now()
	ts := startedAt.In(s.loc).Truncate(time.Minute)
	s.events <- RunStarted{StartedAt: startedAt, Timestamp: ts}

	records := s.scrape(ctx)
	// a cancelled scrape is partial and is never persisted
	if err := ctx.Err(); err != nil {
		s.events <- RunFailed{Err: fmt.Errorf("%w: %w", ErrRunCancelled, err)}
		return
	}
	if len(records) == 0 {
		s.events <- NoData{Timestamp: ts}
		if err := s.notifier.SendText(ctx, FormatNoData(ts)); err != nil {
			s.events <- NotifyFailed{Err: fmt.Errorf("%w: %w", ErrNotificationFailed, err)}
		}
		return
	}

	snap := Snapshot{Timestamp: ts, Records: records}
	summary := Aggregate(records, s.supply, s.cutoffs, ts)

	priorRef, prior, err := s.loadPrior(ctx)
	if err != nil {
		s.events <- RunFailed{Err: err}
		return
	}

	var (
		priorMetrics *MetricSet
		deltas       []WalletDelta
	)
	if prior != nil {
		m := Aggregate(prior.Records, s.supply, s.cutoffs, prior.Timestamp).Metrics
		priorMetrics = &m
		deltas = DiffSnapshots(snap, *prior)
	}

	if !MetricsChanged(summary.Metrics, priorMetrics) && len(deltas) == 0 {
		s.events <- RunUnchanged{Timestamp: ts, Prior: priorRef.Name}
		return
	}

	s.persist(ctx, "primary", s.store, snap, summary)
	for _, m := range s.mirrors {
		s.persist(ctx, m.name, m.store, snap, summary)
	}

	deltaPath := s.writeDeltaReport(ctx, deltas, ts)
	chartPath := s.renderChart(ctx, ts)
	s.notify(ctx, FormatSummary(summary, deltas, s.topMovers), chartPath, deltaPath)

	s.events <- RunCompleted{
		Summary:  summary,
		Deltas:   len(deltas),
		Prior:    priorRef.Name,
		Duration: s.clock.Now().Sub(startedAt),
	}
}

// scrape opens a browser session and paginates through the table.
// Failures only shorten the result.
func (s *Service) scrape(ctx context.Context) []WalletRecord {
	src, closeSrc, err := s.browser.Open(ctx)
	if err != nil {
		s.events <- PaginationStopped{Reason: StopFetchError, Err: fmt.Errorf("%w: %w", ErrBrowserOpen, err)}
		return nil
	}
	defer closeSrc()

	p := NewPaginator(s.clock, s.settleDelay, s.maxPages)
	res := p.Paginate(ctx, src, func(e PageScraped) { s.events <- e })

	s.events <- PaginationStopped{
		Pages:   res.Pages,
		Records: len(res.Records),
		Reason:  res.Reason,
		Err:     res.Err,
	}
	return res.Records
}

// loadPrior returns the most recent stored snapshot, or nil when none exists
func (s *Service) loadPrior(ctx context.Context) (SnapshotRef, *Snapshot, error) {
	refs, err := s.store.ListSnapshots(ctx, s.namer.SnapshotPrefix())
	if err != nil {
		return SnapshotRef{}, nil, fmt.Errorf("%w: %w", ErrPriorLookup, err)
	}

	ref, ok := LatestSnapshot(refs)
	if !ok {
		return SnapshotRef{}, nil, nil
	}

	prior, err := s.store.ReadSnapshot(ctx, ref.ID)
	if err != nil {
		return SnapshotRef{}, nil, fmt.Errorf("%w: %s: %w", ErrPriorRead, ref.Name, err)
	}
	return ref, &prior, nil
}

// persist writes the snapshot and its metrics; both writes are attempted
// independently of each other
func (s *Service) persist(ctx context.Context, target string, store Store, snap Snapshot, summary Summary) {
	ts := snap.Timestamp

	snapName := s.namer.SnapshotName(ts)
	if err := store.WriteSnapshot(ctx, snap, snapName); err != nil {
		s.events <- PersistFailed{Target: target, Err: fmt.Errorf("%w: %w", ErrSnapshotWrite, err)}
	} else {
		s.events <- SnapshotPersisted{Target: target, Name: snapName, Records: len(snap.Records)}
	}

	if err := store.WriteMetrics(ctx, summary, s.namer.MetricsName(ts)); err != nil {
		s.events <- PersistFailed{Target: target, Err: fmt.Errorf("%w: %w", ErrMetricsWrite, err)}
	}
}

func (s *Service) writeDeltaReport(ctx context.Context, deltas []WalletDelta, ts time.Time) string {
	if s.reporter == nil || len(deltas) == 0 {
		return ""
	}

	path, err := s.reporter.WriteDeltaReport(ctx, deltas, s.namer.DeltaName(ts))
	if err != nil {
		s.events <- PersistFailed{Target: "delta report", Err: fmt.Errorf("%w: %w", ErrDeltaReport, err)}
		return ""
	}
	return path
}

func (s *Service) renderChart(ctx context.Context, ts time.Time) string {
	if s.chart == nil {
		return ""
	}

	history, err := s.store.MetricsHistory(ctx)
	if err != nil {
		s.events <- ChartFailed{Err: fmt.Errorf("%w: %w", ErrMetricsHistory, err)}
		return ""
	}

	path := filepath.Join(s.chartDir, s.namer.ChartName(ts))
	if err := s.chart.Render(history, path); err != nil {
		s.events <- ChartFailed{Err: fmt.Errorf("%w: %w", ErrChartRender, err)}
		return ""
	}
	return path
}

// notify sends the summary and the optional attachments; every send is
// attempted even if a previous one failed
func (s *Service) notify(ctx context.Context, text, chartPath, deltaPath string) {
	var errs []error
	if err := s.notifier.SendText(ctx, text); err != nil {
		errs = append(errs, err)
	}
	if chartPath != "" {
		if err := s.notifier.SendImage(ctx, chartPath); err != nil {
			errs = append(errs, err)
		}
	}
	if deltaPath != "" {
		if err := s.notifier.SendFile(ctx, deltaPath); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		s.events <- NotifyFailed{Err: fmt.Errorf("%w: %w", ErrNotificationFailed, errors.Join(errs...))}
	}
}

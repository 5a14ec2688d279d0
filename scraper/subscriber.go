package scraper

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                    chan struct{}
	runStartedHandler       func(RunStarted)
	pageScrapedHandler      func(PageScraped)
	paginationStopHandler   func(PaginationStopped)
	noDataHandler           func(NoData)
	runUnchangedHandler     func(RunUnchanged)
	snapshotHandler         func(SnapshotPersisted)
	persistFailedHandler    func(PersistFailed)
	chartFailedHandler      func(ChartFailed)
	notifyFailedHandler     func(NotifyFailed)
	runCompletedHandler     func(RunCompleted)
	runFailedHandler        func(RunFailed)
	scheduleStartedHandler  func(ScheduleStarted)
	scheduleShutdownHandler func(ScheduleShutdown)
}

// OnRunStarted sets the handler for RunStarted events
func OnRunStarted(fn func(RunStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.runStartedHandler = fn }
}

// OnPageScraped sets the handler for PageScraped events
func OnPageScraped(fn func(PageScraped)) func(*Subscriber) {
	return func(s *Subscriber) { s.pageScrapedHandler = fn }
}

// OnPaginationStopped sets the handler for PaginationStopped events
func OnPaginationStopped(fn func(PaginationStopped)) func(*Subscriber) {
	return func(s *Subscriber) { s.paginationStopHandler = fn }
}

// OnNoData sets the handler for NoData events
func OnNoData(fn func(NoData)) func(*Subscriber) {
	return func(s *Subscriber) { s.noDataHandler = fn }
}

// OnRunUnchanged sets the handler for RunUnchanged events
func OnRunUnchanged(fn func(RunUnchanged)) func(*Subscriber) {
	return func(s *Subscriber) { s.runUnchangedHandler = fn }
}

// OnSnapshotPersisted sets the handler for SnapshotPersisted events
func OnSnapshotPersisted(fn func(SnapshotPersisted)) func(*Subscriber) {
	return func(s *Subscriber) { s.snapshotHandler = fn }
}

// OnPersistFailed sets the handler for PersistFailed events
func OnPersistFailed(fn func(PersistFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.persistFailedHandler = fn }
}

// OnChartFailed sets the handler for ChartFailed events
func OnChartFailed(fn func(ChartFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.chartFailedHandler = fn }
}

// OnNotifyFailed sets the handler for NotifyFailed events
func OnNotifyFailed(fn func(NotifyFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.notifyFailedHandler = fn }
}

// OnRunCompleted sets the handler for RunCompleted events
func OnRunCompleted(fn func(RunCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.runCompletedHandler = fn }
}

// OnRunFailed sets the handler for RunFailed events
func OnRunFailed(fn func(RunFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.runFailedHandler = fn }
}

// OnScheduleStarted sets the handler for ScheduleStarted events
func OnScheduleStarted(fn func(ScheduleStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.scheduleStartedHandler = fn }
}

// OnScheduleShutdown sets the handler for ScheduleShutdown events
func OnScheduleShutdown(fn func(ScheduleShutdown)) func(*Subscriber) {
	return func(s *Subscriber) { s.scheduleShutdownHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := scraper.NewSubscriber(events,
//	  scraper.OnRunCompleted(func(e scraper.RunCompleted) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
//
// The subscriber processes events until the events channel closes,
// then the closer function confirms all processing is complete.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                    make(chan struct{}),
		runStartedHandler:       func(RunStarted) {},
		pageScrapedHandler:      func(PageScraped) {},
		paginationStopHandler:   func(PaginationStopped) {},
		noDataHandler:           func(NoData) {},
		runUnchangedHandler:     func(RunUnchanged) {},
		snapshotHandler:         func(SnapshotPersisted) {},
		persistFailedHandler:    func(PersistFailed) {},
		chartFailedHandler:      func(ChartFailed) {},
		notifyFailedHandler:     func(NotifyFailed) {},
		runCompletedHandler:     func(RunCompleted) {},
		runFailedHandler:        func(RunFailed) {},
		scheduleStartedHandler:  func(ScheduleStarted) {},
		scheduleShutdownHandler: func(ScheduleShutdown) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case RunStarted:
				s.runStartedHandler(e)
			case PageScraped:
				s.pageScrapedHandler(e)
			case PaginationStopped:
				s.paginationStopHandler(e)
			case NoData:
				s.noDataHandler(e)
			case RunUnchanged:
				s.runUnchangedHandler(e)
			case SnapshotPersisted:
				s.snapshotHandler(e)
			case PersistFailed:
				s.persistFailedHandler(e)
			case ChartFailed:
				s.chartFailedHandler(e)
			case NotifyFailed:
				s.notifyFailedHandler(e)
			case RunCompleted:
				s.runCompletedHandler(e)
			case RunFailed:
				s.runFailedHandler(e)
			case ScheduleStarted:
				s.scheduleStartedHandler(e)
			case ScheduleShutdown:
				s.scheduleShutdownHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MateoVillarinos/xrprich/cmd/scraper/config"
	"github.com/MateoVillarinos/xrprich/pkg/clock"
	"github.com/MateoVillarinos/xrprich/pkg/logger"
	"github.com/MateoVillarinos/xrprich/pkg/mailer"
	"github.com/MateoVillarinos/xrprich/pkg/monitor"
	"github.com/MateoVillarinos/xrprich/pkg/pgxdb"
	"github.com/MateoVillarinos/xrprich/pkg/telegram"
	"github.com/MateoVillarinos/xrprich/pkg/xrpscan"
	"github.com/MateoVillarinos/xrprich/scraper"
	"github.com/MateoVillarinos/xrprich/scraper/chart"
	"github.com/MateoVillarinos/xrprich/scraper/notify"
	"github.com/MateoVillarinos/xrprich/scraper/store/csvstore"
	"github.com/MateoVillarinos/xrprich/scraper/store/pgxstore"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	// Stores: the CSV archive is always kept, Postgres is primary or mirror
	csvStore, err := csvstore.New(cfg.DataDir, csvstore.WithLocation(loc))
	if err != nil {
		log.ErrorContext(ctx, "Failed to open data directory", slog.Any("error", err))
		os.Exit(1)
	}

	var primary scraper.Store = csvStore
	opts := []scraper.Option{
		scraper.WithLocation(loc),
		scraper.WithSettleDelay(cfg.SettleDelay),
		scraper.WithMaxPages(cfg.MaxPages),
		scraper.WithTotalSupply(cfg.TotalSupply),
		scraper.WithCutoffs(cfg.Cutoffs...),
		scraper.WithTopMovers(cfg.TopMovers),
		scraper.WithDeltaReporter(csvStore),
		scraper.WithChart(chart.NewRenderer(), filepath.Join(cfg.DataDir, "charts")),
	}

	if cfg.DatabaseURL != "" {
		db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			log.ErrorContext(ctx, "Failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		pgStore, storeCloser := pgxstore.New(db)
		defer storeCloser()

		if cfg.Store == config.StorePostgres {
			primary = pgStore
			opts = append(opts, scraper.WithMirror("csv", csvStore))
		} else {
			opts = append(opts, scraper.WithMirror("postgres", pgStore))
		}
	}

	if cfg.Schedule != "" {
		sched, err := clock.ParseSchedule(cfg.Schedule, loc)
		if err != nil {
			log.ErrorContext(ctx, "Invalid schedule", slog.Any("error", err))
			os.Exit(1)
		}
		opts = append(opts, scraper.WithSchedule(sched))
	}

	notifier, closeNotifier := setupNotifier(cfg, log)
	defer closeNotifier()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mon := monitor.New(reg)
	metricsServer := monitor.NewServer(cfg.MetricsAddr, reg, log)
	metricsServer.Run()
	defer func() {
		if err := metricsServer.Stop(context.Background()); err != nil {
			log.Error("Metrics server shutdown failed", slog.Any("error", err))
		}
	}()

	browser := xrpscan.NewBrowser(xrpscan.Config{
		URL:        cfg.SourceURL,
		Headless:   cfg.Headless,
		RowTimeout: cfg.PageTimeout,
		ExecPath:   cfg.ChromePath,
	}, log)

	service := scraper.NewService(browser, primary, notifier, opts...)

	log.InfoContext(ctx, "Starting XRP rich list scraper",
		slog.String("source", cfg.SourceURL),
		slog.String("store", cfg.Store),
		slog.String("schedule", cfg.Schedule),
		slog.String("timezone", loc.String()),
		slog.String("version", version),
		slog.String("date", date),
	)
	events, done := service.Start(ctx)

	subCloser := setupEventHandling(ctx, events, log, mon)
	defer subCloser()

	<-done
	log.InfoContext(ctx, "Scraper stopped")
}

// setupNotifier fans out to every configured channel, or only logs when
// none is configured
func setupNotifier(cfg config.Config, log *slog.Logger) (scraper.Notifier, func()) {
	var channels []notify.Named
	closer := func() {}

	if cfg.TelegramEnabled() {
		tg, err := telegram.NewClient(telegram.Config{
			Token:      cfg.TelegramToken,
			ChatID:     cfg.TelegramChatID,
			RateLimit:  cfg.TelegramRateLimit,
			MaxRetries: cfg.TelegramRetries,
		}, log)
		if err != nil {
			log.Error("Failed to configure Telegram", slog.Any("error", err))
			os.Exit(1)
		}
		channels = append(channels, notify.Named{Name: "telegram", Notifier: tg})
		closer = func() { _ = tg.Close() }
	}

	if cfg.MailEnabled() {
		m, err := mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			To:       cfg.MailTo,
		})
		if err != nil {
			log.Error("Failed to configure mailer", slog.Any("error", err))
			os.Exit(1)
		}
		channels = append(channels, notify.Named{Name: "email", Notifier: m})
	}

	if len(channels) == 0 {
		log.Warn("No notification channel configured, reports will only be logged")
		return notify.NewLog(log), closer
	}
	return notify.NewMulti(channels...), closer
}

// setupEventHandling logs service events and feeds the run metrics
func setupEventHandling(ctx context.Context, events <-chan scraper.Event, log *slog.Logger, mon *monitor.Monitor) func() {
	return scraper.NewSubscriber(events,
		scraper.OnRunStarted(func(e scraper.RunStarted) {
			log.InfoContext(ctx, "Run started", slog.String("stamp", scraper.Stamp(e.Timestamp)))
		}),
		scraper.OnPageScraped(func(e scraper.PageScraped) {
			mon.PageScraped(e)
			log.DebugContext(ctx, "Page scraped",
				slog.Int("page", e.Page),
				slog.Int("rows", e.Rows),
				slog.Int("malformed", e.Malformed),
			)
		}),
		scraper.OnPaginationStopped(func(e scraper.PaginationStopped) {
			attrs := []any{
				slog.Int("pages", e.Pages),
				slog.Int("records", e.Records),
				slog.String("reason", string(e.Reason)),
			}
			if e.Err != nil {
				log.WarnContext(ctx, "Pagination stopped early", append(attrs, slog.Any("error", e.Err))...)
				return
			}
			log.InfoContext(ctx, "Pagination finished", attrs...)
		}),
		scraper.OnNoData(func(e scraper.NoData) {
			mon.NoData(e)
			log.WarnContext(ctx, "No data obtained", slog.String("stamp", scraper.Stamp(e.Timestamp)))
		}),
		scraper.OnRunUnchanged(func(e scraper.RunUnchanged) {
			mon.RunUnchanged(e)
			log.InfoContext(ctx, "No changes since last snapshot", slog.String("prior", e.Prior))
		}),
		scraper.OnSnapshotPersisted(func(e scraper.SnapshotPersisted) {
			log.InfoContext(ctx, "Snapshot persisted",
				slog.String("target", e.Target),
				slog.String("name", e.Name),
				slog.Int("records", e.Records),
			)
		}),
		scraper.OnPersistFailed(func(e scraper.PersistFailed) {
			mon.PersistFailed(e)
			log.WarnContext(ctx, "Persistence failed", slog.String("target", e.Target), slog.Any("error", e.Err))
		}),
		scraper.OnChartFailed(func(e scraper.ChartFailed) {
			mon.ChartFailed(e)
			log.WarnContext(ctx, "Chart rendering failed", slog.Any("error", e.Err))
		}),
		scraper.OnNotifyFailed(func(e scraper.NotifyFailed) {
			mon.NotifyFailed(e)
			log.WarnContext(ctx, "Notification failed", slog.Any("error", e.Err))
		}),
		scraper.OnRunCompleted(func(e scraper.RunCompleted) {
			mon.RunCompleted(e)
			log.InfoContext(ctx, "Run completed",
				slog.Int("wallets", e.Summary.Wallets),
				slog.Int("deltas", e.Deltas),
				slog.String("prior", e.Prior),
				slog.Duration("duration", e.Duration),
			)
		}),
		scraper.OnRunFailed(func(e scraper.RunFailed) {
			mon.RunFailed(e)
			log.ErrorContext(ctx, "Run failed", slog.Any("error", e.Err))
		}),
		scraper.OnScheduleStarted(func(e scraper.ScheduleStarted) {
			log.InfoContext(ctx, "Next run scheduled", slog.String("at", e.Next.Format(logger.BritishTimeFormat)))
		}),
		scraper.OnScheduleShutdown(func(e scraper.ScheduleShutdown) {
			log.InfoContext(ctx, "Schedule stopped", slog.String("reason", e.Reason.Error()))
		}),
	)
}

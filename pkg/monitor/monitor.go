// Package monitor exposes scraper run metrics to Prometheus
package monitor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MateoVillarinos/xrprich/scraper"
)

const namespace = "xrprich"

// Run outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeUnchanged = "unchanged"
	OutcomeNoData    = "no_data"
	OutcomeFailed    = "failed"
)

// Monitor holds the collectors updated from service events
type Monitor struct {
	Runs            *prometheus.CounterVec
	Pages           prometheus.Counter
	MalformedRows   prometheus.Counter
	PersistFailures *prometheus.CounterVec
	ChartFailures   prometheus.Counter
	NotifyFailures  prometheus.Counter
	Concentration   *prometheus.GaugeVec
	Wallets         prometheus.Gauge
	WalletDeltas    prometheus.Gauge
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_scraped_total",
			Help:      "Balance table pages read.",
		}),
		MalformedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_rows_total",
			Help:      "Table rows skipped because they could not be parsed.",
		}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed writes by storage target.",
		}, []string{"target"}),
		ChartFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_failures_total",
			Help:      "Chart renders that failed.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Runs whose notifications failed at least partially.",
		}),
		Concentration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concentration_pct",
			Help:      "Share of the total supply held by the top N wallets.",
		}, []string{"cutoff"}),
		Wallets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallets",
			Help:      "Wallets in the latest snapshot.",
		}),
		WalletDeltas: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallet_deltas",
			Help:      "Wallets whose balance changed in the latest run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of completed runs.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}

	reg.MustRegister(
		m.Runs,
		m.Pages,
		m.MalformedRows,
		m.PersistFailures,
		m.ChartFailures,
		m.NotifyFailures,
		m.Concentration,
		m.Wallets,
		m.WalletDeltas,
		m.RunDuration,
		m.LastSuccess,
	)
	return m
}

func (m *Monitor) PageScraped(e scraper.PageScraped) {
	m.Pages.Inc()
	m.MalformedRows.Add(float64(e.Malformed))
}

func (m *Monitor) NoData(scraper.NoData) {
	m.Runs.WithLabelValues(OutcomeNoData).Inc()
}

func (m *Monitor) RunUnchanged(scraper.RunUnchanged) {
	m.Runs.WithLabelValues(OutcomeUnchanged).Inc()
}

func (m *Monitor) RunFailed(scraper.RunFailed) {
	m.Runs.WithLabelValues(OutcomeFailed).Inc()
}

func (m *Monitor) PersistFailed(e scraper.PersistFailed) {
	m.PersistFailures.WithLabelValues(e.Target).Inc()
}

func (m *Monitor) ChartFailed(scraper.ChartFailed) {
	m.ChartFailures.Inc()
}

func (m *Monitor) NotifyFailed(scraper.NotifyFailed) {
	m.NotifyFailures.Inc()
}

// RunCompleted records the outcome and the metrics of the new snapshot
func (m *Monitor) RunCompleted(e scraper.RunCompleted) {
	m.Runs.WithLabelValues(OutcomeCompleted).Inc()
	m.RunDuration.Observe(e.Duration.Seconds())
	m.LastSuccess.Set(float64(e.Summary.Metrics.Timestamp.Unix()))
	m.Wallets.Set(float64(e.Summary.Wallets))
	m.WalletDeltas.Set(float64(e.Deltas))

	for _, c := range e.Summary.Metrics.Concentration {
		m.Concentration.WithLabelValues(strconv.Itoa(c.Cutoff)).Set(c.Pct.InexactFloat64())
	}
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends usable as the primary store
const (
	StoreCSV      = "csv"
	StorePostgres = "postgres"
)

// Configuration errors
var (
	ErrInvalidConfig = errors.New("invalid scraper configuration")
)

// Config holds all configuration loaded from environment variables
type Config struct {
	// Page source
	SourceURL   string        `env:"XRP_SOURCE_URL" envDefault:"https://xrpscan.com/balances"`
	Headless    bool          `env:"HEADLESS" envDefault:"true"`
	ChromePath  string        `env:"CHROME_PATH"`
	SettleDelay time.Duration `env:"SCRAPER_SETTLE_DELAY" envDefault:"3s"`
	PageTimeout time.Duration `env:"SCRAPER_PAGE_TIMEOUT" envDefault:"3s"`
	MaxPages    int           `env:"SCRAPER_MAX_PAGES" envDefault:"0"`

	// Empty schedule runs the pipeline once and exits
	Schedule string `env:"SCRAPER_SCHEDULE"`
	Timezone string `env:"SCRAPER_TIMEZONE" envDefault:"UTC"`

	// Metrics
	TotalSupply uint64 `env:"SCRAPER_TOTAL_SUPPLY" envDefault:"100000000000"`
	Cutoffs     []int  `env:"SCRAPER_CUTOFFS" envDefault:"10,100,1000,10000" envSeparator:","`
	TopMovers   int    `env:"SCRAPER_TOP_MOVERS" envDefault:"3"`

	// Storage; a database URL adds Postgres as a mirror of the CSV store
	// unless Postgres is the primary store
	Store       string `env:"STORE" envDefault:"csv"`
	DataDir     string `env:"SCRAPER_DATA_DIR" envDefault:"./data"`
	DatabaseURL string `env:"SCRAPER_DATABASE_URL"`

	// Telegram notifications, enabled when both are set
	TelegramToken     string `env:"TELEGRAM_TOKEN"`
	TelegramChatID    string `env:"TELEGRAM_CHAT_ID"`
	TelegramRateLimit int    `env:"TELEGRAM_RATE_LIMIT" envDefault:"20"`
	TelegramRetries   int    `env:"TELEGRAM_RETRIES" envDefault:"2"`

	// Email notifications, enabled when SMTP_HOST is set
	SMTPHost     string   `env:"SMTP_HOST"`
	SMTPPort     int      `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string   `env:"SMTP_USERNAME"`
	SMTPPassword string   `env:"SMTP_PASSWORD"`
	MailFrom     string   `env:"MAIL_FROM"`
	MailTo       []string `env:"MAIL_TO" envSeparator:","`

	// Prometheus endpoint, disabled when empty
	MetricsAddr string `env:"METRICS_ADDR"`

	// Logging configuration
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

// New loads all configuration from environment variables
func New() Config {
	return env.Must(Load(env.Options{}))
}

// Load parses and validates the configuration. opts.Environment replaces
// the process environment when set.
func Load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Location returns the timezone snapshot stamps are written in
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelegramEnabled reports whether Telegram credentials are configured
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// MailEnabled reports whether an SMTP relay is configured
func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func (c Config) validate() error {
	var errs []error

	switch c.Store {
	case StoreCSV:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("STORE=postgres requires SCRAPER_DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.Store))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEZONE: %w", err))
	}
	if len(c.Cutoffs) == 0 {
		errs = append(errs, errors.New("SCRAPER_CUTOFFS must not be empty"))
	}
	for _, k := range c.Cutoffs {
		if k <= 0 {
			errs = append(errs, fmt.Errorf("SCRAPER_CUTOFFS: cutoff %d must be positive", k))
		}
	}
	if c.TotalSupply == 0 {
		errs = append(errs, errors.New("SCRAPER_TOTAL_SUPPLY must be positive"))
	}
	if c.MailEnabled() && (c.MailFrom == "" || len(c.MailTo) == 0) {
		errs = append(errs, errors.New("SMTP_HOST requires MAIL_FROM and MAIL_TO"))
	}

	return errors.Join(errs...)
}

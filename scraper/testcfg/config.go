package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for scraper acceptance tests
type Config struct {
	ChromePath string        `env:"SCRAPER_TEST_CHROME_PATH"`
	Headless   bool          `env:"SCRAPER_TEST_HEADLESS" envDefault:"true"`
	RowTimeout time.Duration `env:"SCRAPER_TEST_ROW_TIMEOUT" envDefault:"5s"`
	RunTimeout time.Duration `env:"SCRAPER_TEST_RUN_TIMEOUT" envDefault:"60s"`

	LogLevel         string `env:"SCRAPER_TEST_LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"SCRAPER_TEST_LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}

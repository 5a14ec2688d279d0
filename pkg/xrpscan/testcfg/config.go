package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for browser acceptance tests
type Config struct {
	ExecPath   string        `env:"XRPSCAN_TEST_CHROME_PATH"`
	RowTimeout time.Duration `env:"XRPSCAN_TEST_ROW_TIMEOUT" envDefault:"5s"`
	Headless   bool          `env:"XRPSCAN_TEST_HEADLESS" envDefault:"true"`
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

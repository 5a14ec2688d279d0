package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for telegram client acceptance tests
type Config struct {
	Token       string        `env:"TELEGRAM_TEST_TOKEN"`
	ChatID      string        `env:"TELEGRAM_TEST_CHAT_ID"`
	HTTPTimeout time.Duration `env:"TELEGRAM_TEST_HTTP_TIMEOUT" envDefault:"30s"`
	BaseURL     string        `env:"TELEGRAM_TEST_BASE_URL" envDefault:"https://api.telegram.org"`
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

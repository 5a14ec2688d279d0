package config_test

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/web/config"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("it applies defaults", func(t *testing.T) {
		t.Parallel()

		// Act
		cfg, err := config.Load(env.Options{Environment: map[string]string{}})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
		assert.Contains(t, cfg.DatabaseURL, "/xrprich")
	})

	t.Run("it rejects malformed durations", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := config.Load(env.Options{Environment: map[string]string{"WEB_SHUTDOWN_TIMEOUT": "soon"}})

		// Assert
		assert.Error(t, err)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/client"
	"github.com/Sternrassler/wms-enderecos/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, client.DefaultTokenURL, cfg.TokenURL)
	assert.Equal(t, client.DefaultAddressesURL, cfg.AddressesURL)
	assert.Equal(t, "authorization_api", cfg.Scope)
	assert.Equal(t, 15*time.Second, cfg.TokenTimeout)
	assert.Equal(t, 60*time.Second, cfg.PageTimeout)
	assert.Equal(t, 500, cfg.PageSize)
	assert.Equal(t, 2000, cfg.MaxPages)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WMS_CLIENT_ID", "env-id")
	t.Setenv("WMS_PAGE_TIMEOUT", "90s")
	t.Setenv("WMS_RETRY_MAX_ATTEMPTS", "1")
	t.Setenv("WMS_LOG_LEVEL", "debug")
	t.Setenv("WMS_REDIS_URL", "redis://localhost:6379/2")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.ClientID)
	assert.Equal(t, 90*time.Second, cfg.PageTimeout)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.Equal(t, "debug", cfg.Log.Level)

	opts, err := cfg.RedisOptions()
	require.NoError(t, err)
	require.NotNil(t, opts)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wms.yaml")
	content := []byte(`
page_size: 250
max_pages: 0
listen: "127.0.0.1:9000"
retry:
  max_attempts: 5
  initial_backoff: 250ms
log:
  level: warn
  pretty: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, 0, cfg.MaxPages)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialBackoff)

	logCfg := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelWarn, logCfg.Level)
	assert.True(t, logCfg.Pretty)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{name: "zero page size", mutate: func(c *Config) { c.PageSize = 0 }, message: "page_size must be positive (got 0)"},
		{name: "negative max pages", mutate: func(c *Config) { c.MaxPages = -1 }, message: "max_pages must be >= 0 (got -1)"},
		{name: "no attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, message: "retry.max_attempts must be >= 1 (got 0)"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, message: `unknown log level "loud"`},
		{name: "bad redis url", mutate: func(c *Config) { c.RedisURL = "http://nope" }, message: "redis_url"},
		{name: "empty token url", mutate: func(c *Config) { c.TokenURL = "" }, message: "token_url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(New(), "")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDerivedConfigs(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	cfg.Retry.MaxAttempts = 1
	cfg.MaxPages = 10

	cc := cfg.ClientConfig()
	assert.Equal(t, cfg.TokenURL, cc.TokenURL)
	assert.Equal(t, 1, cc.Retry.MaxAttempts)
	assert.Equal(t, 2.0, cc.Retry.BackoffMultiplier)

	_, err = client.New(cc)
	assert.NoError(t, err)

	fc := cfg.FetcherConfig()
	assert.Equal(t, 500, fc.PageSize)
	assert.Equal(t, 10, fc.MaxPages)

	opts, err := cfg.RedisOptions()
	assert.NoError(t, err)
	assert.Nil(t, opts)
}

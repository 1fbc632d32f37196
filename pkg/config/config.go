// Package config loads settings from defaults, an optional config file,
// WMS_* environment variables, and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/auth"
	"github.com/Sternrassler/wms-enderecos/pkg/client"
	"github.com/Sternrassler/wms-enderecos/pkg/logging"
	"github.com/Sternrassler/wms-enderecos/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. WMS_CLIENT_ID.
const EnvPrefix = "WMS"

// Config holds the application configuration.
type Config struct {
	TokenURL     string        `mapstructure:"token_url"`
	AddressesURL string        `mapstructure:"addresses_url"`
	Scope        string        `mapstructure:"scope"`
	UserAgent    string        `mapstructure:"user_agent"`
	TokenTimeout time.Duration `mapstructure:"token_timeout"`
	PageTimeout  time.Duration `mapstructure:"page_timeout"`
	PageSize     int           `mapstructure:"page_size"`
	MaxPages     int           `mapstructure:"max_pages"`

	Retry RetryConfig `mapstructure:"retry"`
	Log   LogConfig   `mapstructure:"log"`

	// RedisURL enables progress publishing when set (redis://host:port/db).
	RedisURL string `mapstructure:"redis_url"`
	// Listen is the address of the browser front end.
	Listen string `mapstructure:"listen"`

	// Run inputs. Usually given per invocation through flags or env.
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	UnitID       string `mapstructure:"unit_id"`
}

// RetryConfig configures transport-error retry.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// SetDefaults registers every key with its default so that environment
// variables are honored by Unmarshal.
func SetDefaults(v *viper.Viper) {
	clientDefaults := client.DefaultConfig("wms-enderecos/0.1.0")
	fetchDefaults := pagination.DefaultConfig()

	v.SetDefault("token_url", clientDefaults.TokenURL)
	v.SetDefault("addresses_url", clientDefaults.AddressesURL)
	v.SetDefault("scope", auth.DefaultScope)
	v.SetDefault("user_agent", clientDefaults.UserAgent)
	v.SetDefault("token_timeout", clientDefaults.TokenTimeout)
	v.SetDefault("page_timeout", clientDefaults.PageTimeout)
	v.SetDefault("page_size", fetchDefaults.PageSize)
	v.SetDefault("max_pages", fetchDefaults.MaxPages)
	v.SetDefault("retry.max_attempts", clientDefaults.Retry.MaxAttempts)
	v.SetDefault("retry.initial_backoff", clientDefaults.Retry.InitialBackoff)
	v.SetDefault("retry.max_backoff", clientDefaults.Retry.MaxBackoff)
	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
	v.SetDefault("redis_url", "")
	v.SetDefault("listen", ":8080")
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("unit_id", "")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings. Run inputs are validated per run, not here.
func (c *Config) Validate() error {
	var errs []error

	if c.TokenURL == "" {
		errs = append(errs, errors.New("token_url is required"))
	}
	if c.AddressesURL == "" {
		errs = append(errs, errors.New("addresses_url is required"))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("user_agent is required"))
	}
	if c.TokenTimeout <= 0 {
		errs = append(errs, fmt.Errorf("token_timeout must be positive (got %s)", c.TokenTimeout))
	}
	if c.PageTimeout <= 0 {
		errs = append(errs, fmt.Errorf("page_timeout must be positive (got %s)", c.PageTimeout))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive (got %d)", c.PageSize))
	}
	if c.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("max_pages must be >= 0 (got %d)", c.MaxPages))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be >= 1 (got %d)", c.Retry.MaxAttempts))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.RedisURL != "" {
		if _, err := redis.ParseURL(c.RedisURL); err != nil {
			errs = append(errs, fmt.Errorf("redis_url: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ClientConfig derives the WMS client configuration.
func (c *Config) ClientConfig() client.Config {
	retry := client.DefaultRetryConfig()
	retry.MaxAttempts = c.Retry.MaxAttempts
	if c.Retry.InitialBackoff > 0 {
		retry.InitialBackoff = c.Retry.InitialBackoff
	}
	if c.Retry.MaxBackoff > 0 {
		retry.MaxBackoff = c.Retry.MaxBackoff
	}

	return client.Config{
		TokenURL:     c.TokenURL,
		AddressesURL: c.AddressesURL,
		UserAgent:    c.UserAgent,
		TokenTimeout: c.TokenTimeout,
		PageTimeout:  c.PageTimeout,
		Retry:        retry,
	}
}

// FetcherConfig derives the pagination configuration.
func (c *Config) FetcherConfig() pagination.Config {
	return pagination.Config{
		PageSize: c.PageSize,
		MaxPages: c.MaxPages,
	}
}

// LoggingConfig derives the logging configuration. Output defaults to stderr.
func (c *Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// RedisOptions parses RedisURL. It returns nil when Redis is not configured.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	return redis.ParseURL(c.RedisURL)
}

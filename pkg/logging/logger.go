// Package logging configures zerolog for the WMS tools and hands out
// component loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a validated level name.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config selects level, format and destination.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
// An empty string means info.
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}

	for _, l := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if string(l) == name {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

// toZerolog maps a level onto zerolog. Unknown names fall back to info.
func toZerolog(level LogLevel) zerolog.Level {
	lvl, err := zerolog.ParseLevel(string(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Setup installs the global logger used by every package and returns it.
func Setup(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	zerolog.SetGlobalLevel(toZerolog(cfg.Level))
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// NewLogger derives a logger tagged with component from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Levels in use:
//
//	debug  request flow per endpoint, per-page item counts, retries scheduled
//	info   run start and finish, progress lines, server start and stop
//	warn   given-up retries, token failures, progress publish errors
//	error  failed runs, server failures
//
// Common fields: component (wms-client, wms-auth, wms-fetcher, wms-query,
// wms-server, wms-progress), run_id, unit_id, endpoint, status,
// error_class, page, total.
//
// Client secrets and bearer tokens are never logged.

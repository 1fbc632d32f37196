// Package progress delivers per-page progress notifications of an address
// fetch run. Notifications are informational: a reporter failure never
// affects the run.
package progress

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event reports that a page was processed.
type Event struct {
	RunID  string    `json:"run_id"`
	UnitID string    `json:"unit_id"`
	Page   int       `json:"page"`
	Total  int       `json:"total"`
	At     time.Time `json:"at"`
}

// Reporter receives progress events.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// Func adapts a function to Reporter.
type Func func(ctx context.Context, ev Event)

// Report calls f.
func (f Func) Report(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Nop discards events.
var Nop Reporter = Func(func(context.Context, Event) {})

// Multi fans events out to every reporter in order.
type Multi []Reporter

// Report forwards ev to each reporter.
func (m Multi) Report(ctx context.Context, ev Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, ev)
		}
	}
}

// LogReporter writes one info line per page.
type LogReporter struct {
	logger zerolog.Logger
}

// NewLogReporter creates a reporter that logs through logger.
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs the event.
func (l *LogReporter) Report(_ context.Context, ev Event) {
	l.logger.Info().
		Str("run_id", ev.RunID).
		Int("page", ev.Page).
		Int("total", ev.Total).
		Msgf("Lendo página %d... %d endereços mapeados.", ev.Page, ev.Total)
}

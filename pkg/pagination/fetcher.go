package pagination

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/address"
	"github.com/Sternrassler/wms-enderecos/pkg/client"
	"github.com/Sternrassler/wms-enderecos/pkg/progress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for fetch runs.
var (
	wmsPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wms_pages_fetched_total",
		Help: "Total listing pages processed",
	})

	wmsAddressesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wms_addresses_fetched_total",
		Help: "Total address records normalized",
	})

	wmsFetchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wms_fetch_runs_total",
		Help: "Total fetch runs by terminal status",
	}, []string{"status"})
)

// ErrPageLimitExceeded is returned when the server keeps reporting more
// pages beyond Config.MaxPages.
var ErrPageLimitExceeded = errors.New("page limit exceeded")

// Config holds fetcher configuration.
type Config struct {
	// PageSize is sent as pageSize on every request.
	PageSize int
	// MaxPages bounds the number of pages requested in one run. 0 means unbounded.
	MaxPages int
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 500,
		MaxPages: 2000,
	}
}

// PageFetcher fetches a single listing page. *client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, token string, req client.PageRequest) (*client.PageResponse, error)
}

// Status is the terminal state of a fetch run.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusEmpty          Status = "empty"
	StatusHTTPError      Status = "http_error"
	StatusTransportError Status = "transport_error"
	StatusPageLimit      Status = "page_limit"
)

// Failed reports whether the status is a failure state.
func (s Status) Failed() bool {
	switch s {
	case StatusSuccess, StatusEmpty:
		return false
	default:
		return true
	}
}

// Result is the outcome of a fetch run.
type Result struct {
	// Addresses holds normalized records in page-then-item order.
	// It is nil when the run failed.
	Addresses []address.Address
	Status    Status
	// Pages is the number of pages processed successfully.
	Pages int
	// Requests is the number of listing requests issued.
	Requests int
	Duration time.Duration
}

// PageError reports a listing failure on a specific page.
type PageError struct {
	Page       int
	StatusCode int
	transport  bool
	Err        error
}

func (e *PageError) Error() string {
	if e.transport {
		return fmt.Sprintf("page %d: transport error: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("page %d: status %d", e.Page, e.StatusCode)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Transport reports whether the page failed before a usable HTTP response.
func (e *PageError) Transport() bool {
	return e.transport
}

// Fetcher runs the sequential page loop.
type Fetcher struct {
	pages    PageFetcher
	config   Config
	reporter progress.Reporter
}

// NewFetcher creates a fetcher. A nil reporter discards progress.
func NewFetcher(pages PageFetcher, config Config, reporter progress.Reporter) *Fetcher {
	if config.PageSize <= 0 {
		config.PageSize = 500
	}
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	if reporter == nil {
		reporter = progress.Nop
	}

	return &Fetcher{
		pages:    pages,
		config:   config,
		reporter: reporter,
	}
}

// FetchAll fetches every page for unitID with token. The returned Result is
// never nil; on failure its Addresses are discarded and the error is a
// *PageError or wraps ErrPageLimitExceeded.
func (f *Fetcher) FetchAll(ctx context.Context, token, unitID string) (*Result, error) {
	return f.FetchAllWithRunID(ctx, token, unitID, "")
}

// FetchAllWithRunID is FetchAll with a run id attached to progress events.
func (f *Fetcher) FetchAllWithRunID(ctx context.Context, token, unitID, runID string) (*Result, error) {
	start := time.Now()
	unitID = strings.TrimSpace(unitID)
	logger := log.With().Str("component", "wms-fetcher").Str("run_id", runID).Str("unit_id", unitID).Logger()

	result := &Result{}
	var accumulated []address.Address

	finish := func(status Status, err error) (*Result, error) {
		result.Status = status
		result.Duration = time.Since(start)
		if !status.Failed() {
			result.Addresses = accumulated
		}
		wmsFetchRunsTotal.WithLabelValues(string(status)).Inc()

		event := logger.Info()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.
			Str("status", string(status)).
			Int("pages", result.Pages).
			Int("requests", result.Requests).
			Int("addresses", len(accumulated)).
			Dur("duration", result.Duration).
			Msg("Fetch complete")

		return result, err
	}

	for page := 1; ; page++ {
		if f.config.MaxPages > 0 && page > f.config.MaxPages {
			return finish(StatusPageLimit, fmt.Errorf("%w: more than %d pages", ErrPageLimitExceeded, f.config.MaxPages))
		}

		result.Requests++
		resp, err := f.pages.FetchPage(ctx, token, client.PageRequest{
			Page:     page,
			PageSize: f.config.PageSize,
			UnitID:   unitID,
		})
		if err != nil {
			pageErr := toPageError(page, err)
			if pageErr.Transport() {
				return finish(StatusTransportError, pageErr)
			}
			return finish(StatusHTTPError, pageErr)
		}

		if len(resp.Items) == 0 {
			if len(accumulated) == 0 {
				return finish(StatusEmpty, nil)
			}
			return finish(StatusSuccess, nil)
		}

		accumulated = append(accumulated, address.NormalizeAll(resp.Items)...)
		result.Pages++
		wmsPagesFetchedTotal.Inc()
		wmsAddressesFetchedTotal.Add(float64(len(resp.Items)))

		f.reporter.Report(ctx, progress.Event{
			RunID:  runID,
			UnitID: unitID,
			Page:   page,
			Total:  len(accumulated),
			At:     time.Now(),
		})

		if !resp.HasNext {
			return finish(StatusSuccess, nil)
		}
	}
}

// toPageError converts a FetchPage error into a *PageError.
// Errors without an HTTP status are treated as transport failures.
func toPageError(page int, err error) *PageError {
	var wmsErr *client.WMSError
	if errors.As(err, &wmsErr) && !wmsErr.IsTransport() {
		return &PageError{Page: page, StatusCode: wmsErr.StatusCode, Err: err}
	}
	return &PageError{Page: page, transport: true, Err: err}
}

// Package client provides the WMS HTTP client with request metrics,
// error classification, and transport-level retry.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/address"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default WMS endpoints.
const (
	DefaultTokenURL     = "https://supply.rac.totvs.app/totvs.rac/connect/token"
	DefaultAddressesURL = "https://supply.logistica.totvs.app/wms/query/api/v1/enderecos"
)

// Endpoint labels used in metrics and logs.
const (
	EndpointToken     = "token"
	EndpointAddresses = "enderecos"
)

// Prometheus metrics for WMS client operations.
var (
	wmsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wms_requests_total",
		Help: "Total WMS requests by endpoint and status",
	}, []string{"endpoint", "status"})

	wmsRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wms_request_duration_seconds",
		Help:    "WMS request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	wmsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wms_errors_total",
		Help: "Total WMS errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of WMS request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUnexpected represents any other non-200 status.
	ErrorClassUnexpected ErrorClass = "unexpected"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 200 response whose body could not be decoded.
	ErrorClassDecode ErrorClass = "decode"
)

// Client is the WMS API client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// TokenURL is the OAuth2 client-credentials endpoint.
	TokenURL string

	// AddressesURL is the paginated address listing endpoint.
	AddressesURL string

	// UserAgent header sent on every request
	UserAgent string

	// Per-request timeouts
	TokenTimeout time.Duration
	PageTimeout  time.Duration

	// Retry applies to transport errors only.
	Retry RetryConfig
}

// DefaultConfig returns the production endpoints and timeouts.
func DefaultConfig(userAgent string) Config {
	return Config{
		TokenURL:     DefaultTokenURL,
		AddressesURL: DefaultAddressesURL,
		UserAgent:    userAgent,
		TokenTimeout: 15 * time.Second,
		PageTimeout:  60 * time.Second,
		Retry:        DefaultRetryConfig(),
	}
}

// New creates a new WMS client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if err := validateURL("token_url", cfg.TokenURL); err != nil {
		return nil, err
	}

	if err := validateURL("addresses_url", cfg.AddressesURL); err != nil {
		return nil, err
	}

	if cfg.TokenTimeout <= 0 || cfg.PageTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive (token %s, page %s)", cfg.TokenTimeout, cfg.PageTimeout)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max_attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	return &Client{
		httpClient: &http.Client{},
		config:     cfg,
		logger:     log.With().Str("component", "wms-client").Logger(),
	}, nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
	}
	return nil
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Do performs an HTTP request with a per-attempt timeout, metrics, and retry
// of transport errors. Responses with any status are returned to the caller;
// the body must be closed by the caller.
func (c *Client) Do(req *http.Request, endpoint string, timeout time.Duration) (*http.Response, error) {
	return c.do(req, endpoint, timeout, c.config.Retry)
}

// DoOnce is Do with exactly one attempt, whatever the retry configuration.
// Token requests use it.
func (c *Client) DoOnce(req *http.Request, endpoint string, timeout time.Duration) (*http.Response, error) {
	return c.do(req, endpoint, timeout, NoRetry())
}

func (c *Client) do(req *http.Request, endpoint string, timeout time.Duration, retry RetryConfig) (*http.Response, error) {
	ctx := req.Context()

	startTime := time.Now()
	defer func() {
		wmsRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing WMS request")

	var resp *http.Response
	attempt := 0

	err := retryWithBackoff(ctx, retry, func() error {
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		attemptReq := req.Clone(attemptCtx)
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				cancel()
				return fmt.Errorf("rewind request body: %w", err)
			}
			attemptReq.Body = body
		}

		r, reqErr := c.httpClient.Do(attemptReq)
		if reqErr != nil {
			cancel()
			c.logger.Warn().Err(reqErr).Str("endpoint", endpoint).Int("attempt", attempt).Msg("HTTP request failed")
			wmsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			wmsRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &WMSError{ErrorClass: ErrorClassNetwork, Message: "transport error", Err: reqErr}
		}

		r.Body = &cancelOnClose{ReadCloser: r.Body, cancel: cancel}
		wmsRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()

		if r.StatusCode != http.StatusOK {
			errClass := classifyStatus(r.StatusCode)
			wmsErrorsTotal.WithLabelValues(string(errClass)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", r.StatusCode).
				Str("error_class", string(errClass)).
				Msg("WMS request error")
		}

		resp = r
		return nil
	}, classifyError)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// cancelOnClose releases the attempt's timeout context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// classifyStatus categorizes a non-200 HTTP status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}

// PageRequest identifies one page of the address listing.
type PageRequest struct {
	Page     int
	PageSize int
	UnitID   string
}

// PageResponse is the decoded body of a listing page.
type PageResponse struct {
	Items   []address.Raw `json:"items"`
	HasNext bool          `json:"hasNext"`
}

// FetchPage retrieves one page of addresses for a unit.
// Non-200 responses yield a *WMSError with the client or server class;
// transport failures and undecodable bodies yield network and decode classes.
func (c *Client) FetchPage(ctx context.Context, token string, pr PageRequest) (*PageResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(pr.Page))
	query.Set("pageSize", strconv.Itoa(pr.PageSize))
	query.Set("unidadeId", strings.TrimSpace(pr.UnitID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.AddressesURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.Do(req, EndpointAddresses, c.config.PageTimeout)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &WMSError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		}
	}

	// Numbers stay json.Number so large integer ids keep every digit.
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var page PageResponse
	if err := dec.Decode(&page); err != nil {
		wmsErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &WMSError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode page body",
			Err:        err,
		}
	}

	c.logger.Debug().
		Int("page", pr.Page).
		Int("items", len(page.Items)).
		Bool("has_next", page.HasNext).
		Msg("Page fetched")

	return &page, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

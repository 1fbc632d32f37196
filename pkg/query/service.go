// Package query runs one user-triggered address query: it validates the
// inputs, obtains a token, fetches every page, and turns the outcome into a
// single user-visible message.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/address"
	"github.com/Sternrassler/wms-enderecos/pkg/auth"
	"github.com/Sternrassler/wms-enderecos/pkg/pagination"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrMissingInput is returned when a required input is empty.
var ErrMissingInput = errors.New("missing required input")

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusEmpty          Status = "empty"
	StatusInvalidInput   Status = "invalid_input"
	StatusAuthFailed     Status = "auth_failed"
	StatusHTTPError      Status = "http_error"
	StatusTransportError Status = "transport_error"
	StatusPageLimit      Status = "page_limit"
)

// Request carries the three inputs of a run.
type Request struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	UnitID       string `json:"unit_id"`
}

// Validate checks that every input is present.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(r.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	if strings.TrimSpace(r.UnitID) == "" {
		missing = append(missing, "unit_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return nil
}

// Outcome is the result of a run handed to rendering and export.
type Outcome struct {
	RunID     string
	UnitID    string
	Status    Status
	Addresses []address.Address
	// Message is the single user-visible text describing the outcome.
	Message  string
	Pages    int
	Duration time.Duration
}

// Failed reports whether the run ended in a failure state.
func (o *Outcome) Failed() bool {
	return o.Status != StatusSuccess && o.Status != StatusEmpty
}

// TokenProvider obtains bearer tokens. *auth.Provider implements it.
type TokenProvider interface {
	Token(ctx context.Context, creds auth.Credentials) (auth.Token, error)
}

// AddressFetcher fetches all address pages. *pagination.Fetcher implements it.
type AddressFetcher interface {
	FetchAllWithRunID(ctx context.Context, token, unitID, runID string) (*pagination.Result, error)
}

// Service executes runs.
type Service struct {
	tokens  TokenProvider
	fetcher AddressFetcher
	logger  zerolog.Logger
}

// NewService creates a run service.
func NewService(tokens TokenProvider, fetcher AddressFetcher) *Service {
	return &Service{
		tokens:  tokens,
		fetcher: fetcher,
		logger:  log.With().Str("component", "wms-query").Logger(),
	}
}

// Run executes one query. The Outcome is always returned; the error is
// non-nil for invalid input and failures, never for an empty result.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()
	unitID := strings.TrimSpace(req.UnitID)
	out := &Outcome{
		RunID:  uuid.NewString(),
		UnitID: unitID,
	}
	logger := s.logger.With().Str("run_id", out.RunID).Str("unit_id", unitID).Logger()

	defer func() {
		out.Duration = time.Since(start)
	}()

	if err := req.Validate(); err != nil {
		out.Status = StatusInvalidInput
		out.Message = "Por favor, preencha todos os campos."
		logger.Warn().Err(err).Msg("Rejected run")
		return out, err
	}

	logger.Info().Msg("Starting address query")

	token, err := s.tokens.Token(ctx, auth.Credentials{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	})
	if err != nil {
		out.Status = StatusAuthFailed
		out.Message = "Falha na autenticação. Verifique o Client ID e Secret."
		return out, err
	}

	result, err := s.fetcher.FetchAllWithRunID(ctx, string(token), unitID, out.RunID)
	if result != nil {
		out.Pages = result.Pages
	}
	if err != nil {
		out.Status, out.Message = describeFailure(err)
		logger.Error().Err(err).Str("status", string(out.Status)).Msg("Address query failed")
		return out, err
	}

	out.Addresses = result.Addresses
	switch result.Status {
	case pagination.StatusEmpty:
		out.Status = StatusEmpty
		out.Message = "Nenhum endereço encontrado para esta Unidade ID."
	default:
		out.Status = StatusSuccess
		out.Message = fmt.Sprintf("Sucesso! %d endereços carregados.", len(out.Addresses))
	}

	logger.Info().
		Str("status", string(out.Status)).
		Int("addresses", len(out.Addresses)).
		Msg("Address query finished")

	return out, nil
}

// describeFailure maps a fetch error to a status and user-visible message.
func describeFailure(err error) (Status, string) {
	var pageErr *pagination.PageError
	switch {
	case errors.As(err, &pageErr) && pageErr.Transport():
		return StatusTransportError, fmt.Sprintf("Erro de conexão: %v", pageErr.Err)
	case errors.As(err, &pageErr):
		return StatusHTTPError, fmt.Sprintf("Erro na API (Página %d): Status %d", pageErr.Page, pageErr.StatusCode)
	case errors.Is(err, pagination.ErrPageLimitExceeded):
		return StatusPageLimit, "Consulta interrompida: limite de páginas excedido."
	default:
		return StatusTransportError, fmt.Sprintf("Erro de conexão: %v", err)
	}
}

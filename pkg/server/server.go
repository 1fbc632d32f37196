// Package server is the browser front end: a credential form, the address
// table as JSON, and the xlsx download.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/address"
	"github.com/Sternrassler/wms-enderecos/pkg/export"
	"github.com/Sternrassler/wms-enderecos/pkg/metrics"
	"github.com/Sternrassler/wms-enderecos/pkg/query"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed static/index.html
var staticFS embed.FS

// Runner executes one address query. *query.Service implements it.
type Runner interface {
	Run(ctx context.Context, req query.Request) (*query.Outcome, error)
}

// ReadyFunc reports whether backing services are reachable.
type ReadyFunc func(ctx context.Context) error

// Server wires the HTTP routes.
type Server struct {
	echo   *echo.Echo
	runner Runner
	ready  ReadyFunc
	logger zerolog.Logger
}

// queryForm is the inbound action. Credentials exist only for the duration
// of the request.
type queryForm struct {
	ClientID     string `json:"client_id" form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"`
	UnitID       string `json:"unit_id" form:"unit_id"`
}

// TableResponse is the JSON table hand-off.
type TableResponse struct {
	RunID   string     `json:"run_id"`
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New creates a server. ready may be nil.
func New(runner Runner, ready ReadyFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		runner: runner,
		ready:  ready,
		logger: log.With().Str("component", "wms-server").Logger(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Request served")
			return nil
		},
	}))

	e.GET("/", s.index)
	e.GET("/health", s.health)
	e.GET("/ready", s.readiness)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.POST("/api/addresses", s.addresses)
	e.POST("/api/addresses/export", s.exportXLSX)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Starting web front end")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) index(c echo.Context) error {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readiness(c echo.Context) error {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) run(c echo.Context) (*query.Outcome, error) {
	var form queryForm
	if err := c.Bind(&form); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "corpo da requisição inválido")
	}

	// Failures are carried by the outcome status and message.
	out, err := s.runner.Run(c.Request().Context(), query.Request{
		ClientID:     form.ClientID,
		ClientSecret: form.ClientSecret,
		UnitID:       form.UnitID,
	})
	if out == nil {
		s.logger.Error().Err(err).Msg("Run returned no outcome")
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "falha na consulta")
	}
	return out, nil
}

func (s *Server) addresses(c echo.Context) error {
	out, err := s.run(c)
	if err != nil {
		return err
	}

	resp := TableResponse{
		RunID:   out.RunID,
		Status:  string(out.Status),
		Message: out.Message,
		Columns: address.Columns,
		Rows:    export.Rows(out.Addresses),
	}
	return c.JSON(statusCode(out.Status), resp)
}

func (s *Server) exportXLSX(c echo.Context) error {
	out, err := s.run(c)
	if err != nil {
		return err
	}

	switch {
	case out.Failed():
		return c.JSON(statusCode(out.Status), messageBody(out))
	case len(out.Addresses) == 0:
		return c.JSON(http.StatusNotFound, messageBody(out))
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, out.Addresses); err != nil {
		s.logger.Error().Err(err).Str("run_id", out.RunID).Msg("Failed to build workbook")
		return echo.NewHTTPError(http.StatusInternalServerError, "falha ao gerar a planilha")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		"attachment; filename="+strconv.Quote(export.FileName(out.UnitID)))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func messageBody(out *query.Outcome) map[string]string {
	return map[string]string{
		"run_id":  out.RunID,
		"status":  string(out.Status),
		"message": out.Message,
	}
}

// statusCode maps a run status to the HTTP status returned to the page.
func statusCode(status query.Status) int {
	switch status {
	case query.StatusInvalidInput:
		return http.StatusBadRequest
	case query.StatusAuthFailed:
		return http.StatusUnauthorized
	case query.StatusHTTPError, query.StatusTransportError, query.StatusPageLimit:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

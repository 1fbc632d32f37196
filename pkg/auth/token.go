// Package auth obtains WMS bearer tokens through the OAuth2
// client-credentials grant.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultScope is the scope requested for WMS query access.
const DefaultScope = "authorization_api"

var tokenRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wms_token_requests_total",
	Help: "Total token requests by result (ok or failure kind)",
}, []string{"result"})

// Credentials identify an OAuth2 client. They are supplied per run and never stored.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Token is an opaque bearer token.
type Token string

// String redacts the token so it never reaches logs by accident.
func (t Token) String() string {
	if t == "" {
		return ""
	}
	return "[REDACTED]"
}

// Doer executes a single HTTP attempt. *client.Client implements it.
// Token requests are never retried.
type Doer interface {
	DoOnce(req *http.Request, endpoint string, timeout time.Duration) (*http.Response, error)
}

// Provider exchanges client credentials for bearer tokens.
// Every call issues a fresh token request.
type Provider struct {
	doer     Doer
	tokenURL string
	scope    string
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewProvider creates a token provider that uses the WMS client's
// token endpoint and timeout.
func NewProvider(c *client.Client) *Provider {
	cfg := c.Config()
	return NewProviderWithDoer(c, cfg.TokenURL, DefaultScope, cfg.TokenTimeout)
}

// NewProviderWithDoer creates a token provider over an arbitrary Doer.
func NewProviderWithDoer(doer Doer, tokenURL, scope string, timeout time.Duration) *Provider {
	return &Provider{
		doer:     doer,
		tokenURL: tokenURL,
		scope:    scope,
		timeout:  timeout,
		logger:   log.With().Str("component", "wms-auth").Logger(),
	}
}

type tokenResponse struct {
	AccessToken any `json:"access_token"`
}

// Token requests a bearer token. Any failure is returned as *AuthError,
// which matches ErrAuthenticationFailed.
func (p *Provider) Token(ctx context.Context, creds Credentials) (Token, error) {
	token, err := p.fetch(ctx, creds)
	if err != nil {
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			return "", err
		}
		tokenRequestsTotal.WithLabelValues(string(authErr.Kind)).Inc()
		p.logger.Warn().
			Str("kind", string(authErr.Kind)).
			Int("status", authErr.StatusCode).
			Err(authErr.Err).
			Msg("Token request failed")
		return "", err
	}

	tokenRequestsTotal.WithLabelValues("ok").Inc()
	p.logger.Debug().Msg("Token acquired")
	return token, nil
}

func (p *Provider) fetch(ctx context.Context, creds Credentials) (Token, error) {
	if strings.TrimSpace(creds.ClientID) == "" || strings.TrimSpace(creds.ClientSecret) == "" {
		return "", &AuthError{Kind: KindMissingCredentials}
	}

	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("grant_type", "client_credentials")
	form.Set("scope", p.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Kind: KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.doer.DoOnce(req, client.EndpointToken, p.timeout)
	if err != nil {
		return "", &AuthError{Kind: kindOf(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &AuthError{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &AuthError{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
	}

	token, ok := body.AccessToken.(string)
	if !ok || token == "" {
		return "", &AuthError{
			Kind:       KindMalformed,
			StatusCode: resp.StatusCode,
			Err:        errMissingAccessToken,
		}
	}

	return Token(token), nil
}

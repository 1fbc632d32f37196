package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/wms-enderecos/pkg/auth"
	"github.com/Sternrassler/wms-enderecos/pkg/client"
	"github.com/Sternrassler/wms-enderecos/pkg/config"
	"github.com/Sternrassler/wms-enderecos/pkg/logging"
	"github.com/Sternrassler/wms-enderecos/pkg/pagination"
	"github.com/Sternrassler/wms-enderecos/pkg/progress"
	"github.com/Sternrassler/wms-enderecos/pkg/query"
	"github.com/redis/go-redis/v9"
)

// components is the assembled query pipeline.
type components struct {
	wms     *client.Client
	redis   *redis.Client
	service *query.Service
}

// buildComponents wires client, token provider, fetcher and progress
// reporters from the configuration.
func buildComponents(cfg *config.Config) (*components, error) {
	wms, err := client.New(cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create WMS client: %w", err)
	}

	reporters := progress.Multi{progress.NewLogReporter(logging.NewLogger("wms-progress"))}

	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, fmt.Errorf("redis options: %w", err)
	}
	var rc *redis.Client
	if opts != nil {
		rc = redis.NewClient(opts)
		reporters = append(reporters, progress.NewRedisReporter(rc))
	}

	tokens := auth.NewProviderWithDoer(wms, cfg.TokenURL, cfg.Scope, cfg.TokenTimeout)
	fetcher := pagination.NewFetcher(wms, cfg.FetcherConfig(), reporters)

	return &components{
		wms:     wms,
		redis:   rc,
		service: query.NewService(tokens, fetcher),
	}, nil
}

// ready pings Redis when progress publishing is enabled.
func (c *components) ready(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// Close releases connections.
func (c *components) Close() {
	c.wms.Close()
	if c.redis != nil {
		c.redis.Close()
	}
}

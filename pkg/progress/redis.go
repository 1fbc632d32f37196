package progress

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ChannelPrefix prefixes the per-unit pub/sub channel.
const ChannelPrefix = "wms:progress:"

// Channel returns the pub/sub channel used for a unit id.
func Channel(unitID string) string {
	return ChannelPrefix + strings.TrimSpace(unitID)
}

// RedisReporter publishes events as JSON on the unit's pub/sub channel so
// that another process can follow a run.
type RedisReporter struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewRedisReporter creates a Redis-backed reporter.
func NewRedisReporter(redisClient *redis.Client) *RedisReporter {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisReporter{
		redis:  redisClient,
		logger: log.With().Str("component", "wms-progress").Logger(),
	}
}

// Report publishes ev. Errors are logged and dropped.
func (r *RedisReporter) Report(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to encode progress event")
		return
	}

	if err := r.redis.Publish(ctx, Channel(ev.UnitID), data).Err(); err != nil {
		r.logger.Warn().Err(err).Str("unit_id", ev.UnitID).Msg("Failed to publish progress event")
	}
}

// Subscribe returns events published for unitID until ctx is done.
// The returned channel is closed when the subscription ends.
func Subscribe(ctx context.Context, redisClient *redis.Client, unitID string) (<-chan Event, error) {
	sub := redisClient.Subscribe(ctx, Channel(unitID))

	// Wait for the subscription confirmation so no event is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed progress event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

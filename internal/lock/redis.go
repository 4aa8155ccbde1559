package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisConfig tunes the Redis locker.
type RedisConfig struct {
	TTL       time.Duration
	RetryWait time.Duration
}

// DefaultRedisConfig returns the defaults used by the server.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{TTL: 5 * time.Second, RetryWait: 25 * time.Millisecond}
}

// Redis is a Locker backed by SET NX PX. The key is not renewed while held:
// once TTL passes another caller may take it, so TTL must exceed the longest
// critical section.
type Redis struct {
	client *redis.Client
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedis creates a Redis locker.
func NewRedis(client *redis.Client, cfg RedisConfig, logger *slog.Logger) *Redis {
	def := DefaultRedisConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = def.RetryWait
	}
	return &Redis{client: client, cfg: cfg, logger: logger}
}

// Lock implements Locker. It polls until the key is free or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.cfg.RetryWait)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() {
		// The caller's ctx may already be canceled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
			r.logger.Warn("failed to release line lock",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}

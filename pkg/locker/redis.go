package locker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultLockTTL   = 2 * time.Minute
	defaultRetryWait = 50 * time.Millisecond
	redisKeyPrefix   = "leadflow:lock:"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lock shared between processes. The TTL bounds how long a
// crashed holder can block others.
type Redis struct {
	client    redis.UniversalClient
	ttl       time.Duration
	retryWait time.Duration
	logger    *slog.Logger
}

// NewRedis connects using a redis:// URL.
func NewRedis(ctx context.Context, url string, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisWithClient(client, DefaultLockTTL, logger), nil
}

func NewRedisWithClient(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	return &Redis{
		client:    client,
		ttl:       ttl,
		retryWait: defaultRetryWait,
		logger:    logger.With("module", "redis_locker"),
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-time.After(r.retryWait):
		}
	}

	return func() {
		// The caller's context may already be canceled; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
			r.logger.Warn("Failed to release lock", "key", key, "error", err)
		}
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"factoryfeed/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Aside implements cache-aside: dest is filled from key when cached, otherwise
// fetch populates dest and the result is stored for ttl. Cache failures never
// fail the call; only fetch errors are returned.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := fetch(); err != nil {
		return err
	}

	encoded, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

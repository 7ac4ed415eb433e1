package cache

import (
	"context"
	"log/slog"
	"time"

	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// Connect returns a nil client when no URL is configured.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, func(), error) {
	if cfg.URL == "" {
		slog.Info("redis disabled, REDIS_URL is empty")
		return nil, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to parse redis url")
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errs.Wrap(err, "failed to ping redis")
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err.Error())
		}
	}
	return client, cleanup, nil
}

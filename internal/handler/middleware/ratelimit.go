package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimiterFactory builds per-route limiters sharing one store backend.
// A nil Redis client selects the in-process memory store.
type RateLimiterFactory struct {
	rdb *redis.Client
}

func NewRateLimiterFactory(rdb *redis.Client) *RateLimiterFactory {
	return &RateLimiterFactory{rdb: rdb}
}

// New returns a limiter keyed by authenticated user when present, otherwise by client IP.
// rateStr uses the "<limit>-<period>" format, e.g. "30-M".
func (f *RateLimiterFactory) New(routeID, rateStr string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		slog.Error("invalid rate limit, limiter disabled", "route", routeID, "rate", rateStr, "error", err.Error())
		return func(*gin.Context) {}
	}

	store, err := f.store(routeID, rate.Period)
	if err != nil {
		slog.Error("rate limit store unavailable, limiter disabled", "route", routeID, "error", err.Error())
		return func(*gin.Context) {}
	}

	return ginmiddleware.NewMiddleware(limiter.New(store, rate), ginmiddleware.WithKeyGetter(func(c *gin.Context) string {
		if userID, ok := GetUserID(c); ok {
			return "user:" + userID
		}
		return "ip:" + c.ClientIP()
	}))
}

func (f *RateLimiterFactory) store(routeID string, period time.Duration) (limiter.Store, error) {
	prefix := fmt.Sprintf("rate_limiter:%s", routeID)
	if f.rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: period,
		}), nil
	}
	store, err := redisstore.NewStoreWithOptions(f.rdb, limiter.StoreOptions{
		Prefix:          prefix,
		MaxRetry:        3,
		CleanUpInterval: period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store for route %s: %w", routeID, err)
	}
	return store, nil
}

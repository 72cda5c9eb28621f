package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
	"valentine/internal/config"
)

const limiterPrefix = "valentine_limiter"

func newLimiterStore(redisURL string) (limiter.Store, error) {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix}), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{
		Prefix: limiterPrefix,
	})
}

// NewRateLimiter returns a per-client-IP limiter, or nil when cfg.Rate is empty.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) (gin.HandlerFunc, error) {
	if cfg.Rate == "" {
		return nil, nil
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", cfg.Rate, err)
	}
	store, err := newLimiterStore(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return mgin.NewMiddleware(limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn("Rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))
			writeError(c, http.StatusTooManyRequests, "Too many requests")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Error("Rate limiter unavailable", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "Internal server error")
		}),
	), nil
}

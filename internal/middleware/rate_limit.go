package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const issueRateLimitPrefix = "rl:issue:"

// IssueRateLimit caps pass issuance per client IP per minute using Redis when available.
func IssueRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 30
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		key := issueRateLimitPrefix + c.IP()
		// SETNX and INCR share a transaction so every window carries its expiry.
		pipe := cache.TxPipeline()
		pipe.SetNX(ctx, key, 0, time.Minute)
		incr := pipe.Incr(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("rate limit lookup failed", slog.String("key", key), slog.Any("error", err))
			return c.Next() // fail-open on cache errors
		}
		if incr.Val() > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many wallet pass requests, try again later")
		}
		return c.Next()
	}
}

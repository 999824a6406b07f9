package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/placemaking/walletpass/internal/logging"
)

func TestIssueRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/issue", IssueRateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	var last int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/issue", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		last = resp.StatusCode
		if i < 2 && last != fiber.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, last)
		}
	}
	if last != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last)
	}
	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], issueRateLimitPrefix) {
		t.Fatalf("expected one rate limit key got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 {
		t.Fatalf("expected window expiry on rate limit key, got %s", ttl)
	}
}

func TestIssueRateLimitWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/issue", IssueRateLimit(nil, 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/issue", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected pass-through got %d", resp.StatusCode)
		}
	}
}

func TestIssueRateLimitWindowResets(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/issue", IssueRateLimit(cache, 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	send := func() int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/issue", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	if got := send(); got != fiber.StatusOK {
		t.Fatalf("expected first request allowed got %d", got)
	}
	if got := send(); got != fiber.StatusTooManyRequests {
		t.Fatalf("expected second request limited got %d", got)
	}

	mr.FastForward(time.Minute + time.Second)

	if got := send(); got != fiber.StatusOK {
		t.Fatalf("expected limit lifted after the window got %d", got)
	}
}

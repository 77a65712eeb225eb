package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	u "dmlabels/internal/utils"
)

func TestTokenBasedLimitOverridesUserBasedLimit(t *testing.T) {
	userLimit := 2
	interval := time.Hour

	token := "test-token"
	// Set a high token limit so only the user limiter would block if it were applied.
	resetTokenLimiters(t)
	u.Tokens.Replace(map[string]int{token: 100})
	u.AppConfig.RateLimiter.Interval = interval

	cfg := u.Config{}
	cfg.Auth.Enabled = true
	cfg.RateLimiter.EnableUserLimiter = true
	cfg.RateLimiter.UserLimit = userLimit
	cfg.RateLimiter.Interval = interval

	app := fiber.New()
	app.Use(apiKeyMiddleware(cfg))
	app.Use(rateLimitMiddleware())
	app.Use(userRateLimitMiddleware(cfg))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	makeReq := func(withToken bool) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.RemoteAddr = "1.2.3.4:5678"
		if withToken {
			req.Header.Set("X-API-Key", token)
		}
		return req
	}

	// Exhaust anonymous user limit.
	for i := 0; i < userLimit; i++ {
		resp, err := app.Test(makeReq(false), -1)
		if err != nil {
			t.Fatalf("anonymous request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 but got %d", resp.StatusCode)
		}
	}
	resp, err := app.Test(makeReq(false), -1)
	if err != nil {
		t.Fatalf("anonymous exceed request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 but got %d", resp.StatusCode)
	}

	// Now authenticate via token: this must NOT be blocked by the user limiter.
	resp, err = app.Test(makeReq(true), -1)
	if err != nil {
		t.Fatalf("token request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for token request but got %d", resp.StatusCode)
	}
}

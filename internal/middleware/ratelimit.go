package middleware

import (
	"log"
	"time"

	"accord/internal/services/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimit applies a sliding-window limiter keyed by client address. The
// limiter only reports policy; this middleware is the caller that suspends
// processing for the reported backoff before letting the request through.
func RateLimit(limiter *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		delay := limiter.Check(c.IP(), time.Now())
		if delay > 0 {
			log.Printf("rate limiting %s: %s delay", c.IP(), delay)
			time.Sleep(delay)
		}
		return c.Next()
	}
}

package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/ratelimit"
	"go.uber.org/zap"
)

// RequestContext copies the request id set by the requestid middleware into the
// user context so services can log and track with it.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := requestID(c); id != "" {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// SubmitRateLimit rejects clients that exceed the submission limit. Limiter
// errors let the request through.
func SubmitRateLimit(limiter ratelimit.RateLimiter, metrics *observability.Metrics, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		allowed, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			observability.WithContextLogger(logger, c.UserContext()).Warn("rate limiter unavailable, allowing request",
				zap.String("ip", c.IP()),
				zap.Error(err),
			)
			return c.Next()
		}
		if !allowed {
			metrics.IncRateLimited()
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	if value, ok := c.Locals("requestid").(string); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
}

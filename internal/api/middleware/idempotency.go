package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
)

// Idempotency replays a previously stored response for a repeated
// Idempotency-Key on the given scope. Replayed responses carry
// X-Idempotent: true; responses are only stored for 2xx outcomes so a
// failed attempt can be retried with the same key.
func Idempotency(s service.IdempotencyService, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("Idempotency-Key")
		if key == "" {
			return c.Next()
		}

		rec, err := s.Check(c.Context(), scope, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if rec != nil {
			c.Set("X-Idempotent", "true")
			c.Set("Content-Type", "application/json")
			return c.Status(rec.StatusCode).Send(rec.ResponseBody)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= 200 && status < 300 {
			body := make([]byte, len(c.Response().Body()))
			copy(body, c.Response().Body())
			if err := s.Save(c.Context(), scope, key, status, body); err != nil {
				slog.Info(err.Error())
			}
		}
		return nil
	}
}

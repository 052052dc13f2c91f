package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Recover turns a handler panic into the standard 500 envelope instead of
// tearing down the connection.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("panic recovered",
				slog.Any("panic", r),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
			)
			_ = errorJSON(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		}()
		return c.Next()
	}
}

package middlewares

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// APIKeyMiddleware rejects requests whose X-API-Key header does not match
// the configured key.
func APIKeyMiddleware(apiKey string) fiber.Handler {
	return func(c fiber.Ctx) error {
		provided := c.Get("X-API-Key")

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			log.Warn().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Rejected request with invalid API key")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  "Invalid API key",
			})
		}

		return c.Next()
	}
}

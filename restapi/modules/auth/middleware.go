// Package auth guards the write endpoints with a shared secret.
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// HeaderAPIKey carries the restore secret.
const HeaderAPIKey = "x-api-key"

// RequireAPIKey rejects requests whose x-api-key header does not equal key.
// An empty key rejects every request.
func RequireAPIKey(key string) fiber.Handler {
	want := []byte(key)
	return func(c *fiber.Ctx) error {
		got := []byte(c.Get(HeaderAPIKey))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

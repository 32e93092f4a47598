package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator checks a dashboard session token. A non-nil error means the
// token is missing, unknown or expired.
type TokenValidator interface {
	Validate(token string) error
}

// RequireSession guards insurer routes with a Bearer session token issued by
// the login endpoint.
func RequireSession(sessions TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		if err := sessions.Validate(token); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid session")
		}
		return c.Next()
	}
}

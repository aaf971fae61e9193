// auth/middleware.go
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientIDKey is the fiber locals key the middleware stores the
// authenticated client ID under.
const ClientIDKey = "client_id"

// Middleware returns a fiber handler that requires a valid bearer token
// on every request it guards. Failures surface as registry errors for
// the app's error handler to map.
func Middleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return NewMissingTokenError()
		}

		clientID, err := svc.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return err
		}

		c.Locals(ClientIDKey, clientID)
		return c.Next()
	}
}

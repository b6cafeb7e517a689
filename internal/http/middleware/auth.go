package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"sitepulse/internal/apperr"
	"sitepulse/internal/auth"
)

// UserIDKey is the fiber.Locals key holding the authenticated user id.
const UserIDKey = "sitepulse_user_id"

// BearerAuth middleware validates the identity provider's bearer token and
// stores the caller's user id in the request locals.
// Expects: Authorization: Bearer <jwt>
func BearerAuth(verifier *auth.Verifier, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Missing Authorization header")
		}

		// fasthttp trims trailing whitespace, so "Bearer   " arrives as "Bearer".
		authHeader = strings.TrimSpace(authHeader)
		if authHeader == "Bearer" {
			return unauthorized(c, "Token is empty")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid Authorization header format. Expected: Bearer <token>")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("Rejected bearer token", slog.Any("error", err))
			if errors.Is(err, auth.ErrExpiredToken) {
				return unauthorized(c, "Token has expired")
			}
			return unauthorized(c, "Invalid token")
		}

		c.Locals(UserIDKey, claims.UserID())
		return c.Next()
	}
}

// UserID returns the user id stored by BearerAuth, or "".
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserIDKey).(string)
	return userID
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"code":  apperr.CodeUnauthenticated,
	})
}

package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"elearning/backend/models"
	"elearning/backend/services"
	"elearning/backend/utils"
)

const userKey = "user"

// TokenHeader carries the session token.
const TokenHeader = "token"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// IsAuth loads the user owning the session token into the request context.
func IsAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(TokenHeader)
		if token == "" {
			return utils.Unauthorized(c, "Please Login")
		}
		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if services.KindOf(err) == services.KindUnauthorized {
				return utils.Unauthorized(c, "Login First")
			}
			return err
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// IsAdmin must run after IsAuth.
func IsAdmin(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil || !user.Role.CanAdminister() {
		return utils.Forbidden(c, "You are not admin")
	}
	return c.Next()
}

// IsSuperAdmin must run after IsAuth.
func IsSuperAdmin(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil || !user.Role.IsSuperAdmin() {
		return utils.Forbidden(c, "This endpoint is assin to superadmin")
	}
	return c.Next()
}

// CurrentUser returns the user set by IsAuth, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

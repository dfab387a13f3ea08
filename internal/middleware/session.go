package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/dto"
	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/services"
)

const (
	SessionCookieName = "session_token"
	userLocalsKey     = "user"
)

// SessionResolver maps a session credential to its user. A nil user with a
// nil error means the request is anonymous.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// SessionToken returns the presented session credential: the session cookie
// if set, otherwise an Authorization bearer token.
func SessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookieName); token != "" {
		return token
	}
	token, _ := services.BearerToken(c.Get(fiber.HeaderAuthorization))
	return token
}

// OptionalSession attaches the signed-in user, if any, and always continues.
func OptionalSession(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolver.Resolve(c.UserContext(), SessionToken(c))
		if err != nil {
			return err
		}
		if user != nil {
			c.Locals(userLocalsKey, user)
		}
		return c.Next()
	}
}

// RequireSession rejects requests without a live session.
func RequireSession(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolver.Resolve(c.UserContext(), SessionToken(c))
		if err != nil {
			return err
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Not authenticated",
			})
		}
		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user attached by OptionalSession or RequireSession.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalsKey).(*models.User)
	return user
}

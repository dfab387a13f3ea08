package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/dto"
)

// SelfOrAdmin allows the request when the route parameter names the signed-in
// user or the user is an admin. It must run after RequireSession.
func SelfOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Not authenticated",
			})
		}

		if user.UserID == c.Params(param) || user.IsAdmin() {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Forbidden",
		})
	}
}

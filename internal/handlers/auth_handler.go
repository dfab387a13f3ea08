package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/config"
	"github.com/relvanta/relvanta-api/internal/dto"
	"github.com/relvanta/relvanta-api/internal/middleware"
	"github.com/relvanta/relvanta-api/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	cookie      config.CookieConfig
}

func NewAuthHandler(authService *services.AuthService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// CreateSession exchanges a Firebase ID token for a session cookie.
func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	grant, err := h.authService.CreateSession(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMalformedAuthHeader):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Missing or invalid Authorization header",
			})
		case errors.Is(err, services.ErrInvalidIdentityToken):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid or expired Firebase token",
			})
		case errors.Is(err, services.ErrInvalidClaims):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid token claims",
			})
		}
		return err
	}

	c.Cookie(h.sessionCookie(grant.Token, int(h.authService.SessionTTL().Seconds())))
	return c.JSON(dto.NewUserResponse(&grant.User))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Not authenticated",
		})
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Logout ends the presented session, if any, and always clears the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.SessionToken(c)); err != nil {
		slog.Error("logout failed", "path", c.Path(), "error", err)
	}

	cookie := h.sessionCookie("", 0)
	cookie.Expires = time.Unix(0, 0)
	c.Cookie(cookie)

	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cookie.SameSite,
	}
}

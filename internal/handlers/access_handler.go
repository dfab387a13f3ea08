package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/services"
)

type AccessHandler struct {
	accessService *services.AccessService
}

func NewAccessHandler(accessService *services.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// GetClientAccess is mounted behind RequireSession and SelfOrAdmin.
func (h *AccessHandler) GetClientAccess(c *fiber.Ctx) error {
	access, err := h.accessService.GetClientAccess(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(access)
}

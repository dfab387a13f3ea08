package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/dto"
	"github.com/relvanta/relvanta-api/internal/repository"
)

const serviceName = "relvanta-api"

type HealthHandler struct {
	store repository.Pinger
}

func NewHealthHandler(store repository.Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check always answers 200; the db field carries the store ping result.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check: store unreachable", "error", err)
		dbStatus = "unhealthy"
	}

	return c.JSON(dto.HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		DB:      dbStatus,
	})
}

func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Message: "Relvanta Platform API"})
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/dto"
	"github.com/relvanta/relvanta-api/internal/services"
)

type ContentHandler struct {
	contentService *services.ContentService
}

func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// queryLimit reads ?limit; anything unparseable falls back to the default.
func queryLimit(c *fiber.Ctx) int {
	return services.NormalizeLimit(c.QueryInt("limit", services.DefaultListLimit))
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func (h *ContentHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.contentService.ListProducts(c.UserContext(), services.ProductQuery{
		Visibility: c.Query("visibility"),
		Status:     c.Query("status"),
		Category:   c.Query("category"),
		Limit:      queryLimit(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.ProductListResponse{Products: products, Total: len(products)})
}

func (h *ContentHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.contentService.GetProduct(c.UserContext(), c.Params("slug"))
	if errors.Is(err, services.ErrProductNotFound) {
		return notFound(c, "Product not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ContentHandler) ListServices(c *fiber.Ctx) error {
	svcs, err := h.contentService.ListServices(c.UserContext(), services.ServiceQuery{
		Visibility:     c.Query("visibility"),
		EngagementType: c.Query("engagement_type"),
		Limit:          queryLimit(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.ServiceListResponse{Services: svcs, Total: len(svcs)})
}

func (h *ContentHandler) GetService(c *fiber.Ctx) error {
	service, err := h.contentService.GetService(c.UserContext(), c.Params("slug"))
	if errors.Is(err, services.ErrServiceNotFound) {
		return notFound(c, "Service not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(service)
}

// ListLabs and GetLab are mounted behind RequireSession.
func (h *ContentHandler) ListLabs(c *fiber.Ctx) error {
	labs, err := h.contentService.ListLabs(c.UserContext(), services.LabQuery{
		Status: c.Query("status"),
		Limit:  queryLimit(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.LabListResponse{Labs: labs, Total: len(labs)})
}

func (h *ContentHandler) GetLab(c *fiber.Ctx) error {
	lab, err := h.contentService.GetLab(c.UserContext(), c.Params("slug"))
	if errors.Is(err, services.ErrLabNotFound) {
		return notFound(c, "Lab not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(lab)
}

func (h *ContentHandler) GetPage(c *fiber.Ctx) error {
	page, err := h.contentService.GetPage(c.UserContext(), c.Params("slug"))
	if errors.Is(err, services.ErrPageNotFound) {
		return notFound(c, "Page not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *ContentHandler) ListRedirects(c *fiber.Ctx) error {
	redirects, err := h.contentService.ListRedirects(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.RedirectListResponse{Redirects: redirects})
}

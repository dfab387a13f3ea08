package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/handlers"
	"github.com/relvanta/relvanta-api/internal/metrics"
	"github.com/relvanta/relvanta-api/internal/middleware"
)

func Setup(
	app *fiber.App,
	resolver middleware.SessionResolver,
	m *metrics.Metrics,
	authHandler *handlers.AuthHandler,
	contentHandler *handlers.ContentHandler,
	accessHandler *handlers.AccessHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/health", healthHandler.Check)
	if m != nil {
		app.Get("/metrics", m.Handler())
	}

	api := app.Group("/api")
	api.Get("/", healthHandler.Root)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/session", authHandler.CreateSession)
	auth.Get("/me", middleware.OptionalSession(resolver), authHandler.Me)
	auth.Post("/logout", authHandler.Logout)

	// Content: public collections, labs need a session
	content := api.Group("/content")
	content.Get("/products", contentHandler.ListProducts)
	content.Get("/products/:slug", contentHandler.GetProduct)
	content.Get("/services", contentHandler.ListServices)
	content.Get("/services/:slug", contentHandler.GetService)
	content.Get("/labs", middleware.RequireSession(resolver), contentHandler.ListLabs)
	content.Get("/labs/:slug", middleware.RequireSession(resolver), contentHandler.GetLab)
	content.Get("/pages/:slug", contentHandler.GetPage)
	content.Get("/redirects", contentHandler.ListRedirects)

	// Access grants: the subject or an admin
	api.Get("/access/:user_id",
		middleware.RequireSession(resolver),
		middleware.SelfOrAdmin("user_id"),
		accessHandler.GetClientAccess,
	)
}

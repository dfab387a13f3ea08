package middleware

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/relvanta/relvanta-api/internal/config"
)

// CORS allows the configured origins to call the API with credentials so the
// session cookie travels cross-origin. Callers skip it when no origins are set.
// A wildcard origin cannot carry credentials, so cookies are not shared then.
func CORS(cfg *config.Config) fiber.Handler {
	wildcard := slices.Contains(cfg.CORSOrigins, "*")
	if wildcard {
		slog.Warn("CORS_ORIGINS contains *, credentialed requests are disabled")
	}
	origins := cfg.CORSOrigins
	if wildcard {
		origins = []string{"*"}
	}

	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: !wildcard,
	})
}

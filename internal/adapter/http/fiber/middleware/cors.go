package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/voltgrid/console/pkg/config"
)

// NewCORS builds the CORS middleware from application config. Unset fields
// take console defaults that cover the report API and the websocket upgrade.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	maxAge := 86400
	if cfg.MaxAge > 0 {
		maxAge = cfg.MaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     joinOrDefault(cfg.AllowedOrigins, "*"),
		AllowMethods:     joinOrDefault(cfg.AllowedMethods, "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
		AllowHeaders:     joinOrDefault(cfg.AllowedHeaders, "Origin,Content-Type,Accept,Authorization,X-Request-ID"),
		ExposeHeaders:    joinOrDefault(cfg.ExposeHeaders, "Content-Length,Content-Disposition"),
		AllowCredentials: cfg.Credentials,
		MaxAge:           maxAge,
	})
}

func joinOrDefault(values []string, def string) string {
	if len(values) == 0 {
		return def
	}
	return strings.Join(values, ",")
}

// DefaultCORS is the permissive development configuration.
func DefaultCORS() fiber.Handler {
	return NewCORS(config.CORSConfig{
		MaxAge: int((24 * time.Hour).Seconds()),
	})
}

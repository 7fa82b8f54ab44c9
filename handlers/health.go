package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/response"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HandleCheckHealth responds with the database status
func HandleCheckHealth(store HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
			return apperror.Internal(err, "Database unavailable")
		}
		return response.Success(c, fiber.Map{"database": "ok"})
	}
}

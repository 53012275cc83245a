package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ankita19Rathore/QUEUEASE/internal/persistence"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	pg    *persistence.Postgres
	redis *persistence.Redis
}

// NewHealthHandler constructs handler.
func NewHealthHandler(pg *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{pg: pg, redis: redis}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	status := fiber.StatusOK

	if h.pg != nil && h.pg.Pool != nil {
		if err := h.pg.Pool.Ping(c.Context()); err != nil {
			checks["postgres"] = err.Error()
			status = fiber.StatusServiceUnavailable
		} else {
			checks["postgres"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(c.Context()); err != nil {
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}
	return c.Status(status).JSON(fiber.Map{"checks": checks})
}

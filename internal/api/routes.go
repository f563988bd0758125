package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Checker-Finance/warp/internal/backend"
	"github.com/Checker-Finance/warp/internal/store"
)

// BackendProbe reports backend reachability.
type BackendProbe interface {
	Health(ctx context.Context) (*backend.HealthStatus, error)
}

// RegisterRoutes registers all HTTP routes on the Fiber app. nc may be nil
// when event publishing is disabled.
func RegisterRoutes(app *fiber.App, nc *nats.Conn, st store.QuoteStore, probe BackendProbe, h *GatewayHandler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"backend": "ok",
			"store":   "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if _, err := probe.Health(healthCtx); err != nil {
			checks["backend"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		if err := st.HealthCheck(healthCtx); err != nil {
			checks["store"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		if nc != nil {
			checks["nats"] = "ok"
			if !nc.IsConnected() {
				checks["nats"] = "disconnected"
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	v1 := app.Group("/api/v1")
	v1.Post("/quotes", h.CreateQuoteHandler)
	v1.Get("/quotes/:id", h.GetQuoteHandler)
	v1.Post("/transfers", h.CreateTransferHandler)
	v1.Get("/transfers", h.ListTransfersHandler)
	v1.Get("/transfers/export", h.ExportTransfersHandler)
	v1.Get("/dashboard", h.DashboardHandler)
}

package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler adapts the Prometheus scrape endpoint to a Fiber handler.
// Registration is forced here so /metrics works even before the first request
// passes through the observability middleware.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()

	return adaptor.HTTPHandler(promhttp.Handler())
}

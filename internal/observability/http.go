package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is where the scrape endpoint is mounted, outside the
// authenticated API groups.
const MetricsPath = "/metrics"

// MetricsHandler serves the tracker's Prometheus registry (HTTP, dashboard
// cache and roadmap generation series) through Fiber's net/http adaptor.
// Registration is idempotent, so handler and collectors can init in any
// order.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cyclecal_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cyclecal_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	periodMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cyclecal_period_mutations_total",
		Help: "Period date mutations applied by the store.",
	}, []string{"kind"})

	storeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cyclecal_store_failures_total",
		Help: "Period and settings store calls that failed, by operation.",
	}, []string{"operation"})

	remindersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cyclecal_reminders_total",
		Help: "Reminder notifications by kind and delivery result.",
	}, []string{"kind", "result"})
)

// Middleware counts every request under its matched route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// Ctx strings alias fasthttp buffers that are reused after the
		// handler returns; label values must own their bytes.
		route := c.Path()
		if matched := c.Route(); matched != nil && matched.Path != "" {
			route = matched.Path
		}
		route = utils.CopyString(route)
		method := utils.CopyString(c.Method())
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func ObservePeriodMutation(kind string) {
	periodMutationsTotal.WithLabelValues(kind).Inc()
}

func ObserveReminder(kind string, result string) {
	remindersTotal.WithLabelValues(kind, result).Inc()
}

func ObserveStoreFailure(operation string) {
	storeFailuresTotal.WithLabelValues(operation).Inc()
}

package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce       sync.Once
	registry           *prometheus.Registry
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	enrollmentsTotal   *prometheus.CounterVec
	progressTotal      prometheus.Counter
	statsCacheTotal    *prometheus.CounterVec
	domainEventsTotal  *prometheus.CounterVec
	eventStreamClients prometheus.Gauge
	lessonUploadsTotal *prometheus.CounterVec
	authAttemptsTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		registry = prometheus.NewRegistry()

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillopus_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillopus_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillopus_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		enrollmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillopus_enrollments_total",
			Help: "Enrollment writes grouped by operation.",
		}, []string{"operation"})

		progressTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillopus_progress_recorded_total",
			Help: "Lesson progress entries recorded.",
		})

		statsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillopus_stats_cache_lookups_total",
			Help: "Statistics cache lookups grouped by result.",
		}, []string{"result"})

		domainEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillopus_domain_events_total",
			Help: "Domain events delivered to local subscribers.",
		}, []string{"type", "origin"})

		eventStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skillopus_event_stream_clients",
			Help: "Open websocket event stream connections.",
		})

		lessonUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillopus_lesson_uploads_total",
			Help: "Lesson video uploads grouped by outcome.",
		}, []string{"outcome"})

		authAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillopus_auth_attempts_total",
			Help: "Login and registration attempts grouped by outcome.",
		}, []string{"action", "outcome"})

		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			enrollmentsTotal,
			progressTotal,
			statsCacheTotal,
			domainEventsTotal,
			eventStreamClients,
			lessonUploadsTotal,
			authAttemptsTotal,
		)
	})
}

// Registry returns the registry holding every skillopus collector.
func Registry() *prometheus.Registry {
	RegisterMetrics()
	return registry
}

// MetricsHandler serves the skillopus registry in the Prometheus exposition format.
func MetricsHandler() fiber.Handler {
	reg := Registry()
	return adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

func EnrollmentsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return enrollmentsTotal
}

func ProgressRecordedTotal() prometheus.Counter {
	RegisterMetrics()
	return progressTotal
}

func StatsCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return statsCacheTotal
}

func DomainEventsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return domainEventsTotal
}

// EventStreamClients tracks open websocket subscribers.
func EventStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return eventStreamClients
}

func LessonUploadsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return lessonUploadsTotal
}

func AuthAttemptsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return authAttemptsTotal
}

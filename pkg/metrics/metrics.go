package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "elapor_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elapor_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elapor_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	invitationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elapor_invitations_total",
			Help: "Invitation attempts by kind (invite, resend) and result.",
		},
		[]string{"kind", "result"},
	)

	rosterSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elapor_roster_saves_total",
			Help: "Batched super-admin saves by result.",
		},
		[]string{"result"},
	)

	initOnce sync.Once
)

// Init registers the collectors in the default registry; safe to call twice
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, invitationsTotal, rosterSavesTotal)
	})
}

// RegisterCooldownGauge exposes the number of running cooldown timers
func RegisterCooldownGauge(active func() int) error {
	return prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "elapor_cooldown_active_timers",
		Help: "Running invitation resend cooldown timers.",
	}, func() float64 { return float64(active()) }))
}

// Handler Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument gin middleware recording in-flight, count and latency per route
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpInFlight.Dec()
	}
}

// ObserveInvitation counts one invite or resend outcome
func ObserveInvitation(kind, result string) {
	invitationsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveRosterSave counts one batch save outcome
func ObserveRosterSave(result string) {
	rosterSavesTotal.WithLabelValues(result).Inc()
}

package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	ProrationCalculations *prometheus.CounterVec
	ProrationFallbacks    *prometheus.CounterVec
	PlanChangeTransitions *prometheus.CounterVec
	CheckoutSessions      *prometheus.CounterVec
	ActiveFlows           prometheus.Gauge
}

// New registers every metric on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		ProrationCalculations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proration_calculations_total",
				Help: "Proration results served, by source",
			},
			[]string{"source"}, // remote, local
		),
		ProrationFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proration_fallbacks_total",
				Help: "Remote proration failures recovered locally, by reason",
			},
			[]string{"reason"},
		),
		PlanChangeTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_change_transitions_total",
				Help: "Plan change flow state transitions",
			},
			[]string{"from", "to"},
		),
		CheckoutSessions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_sessions_total",
				Help: "Checkout session requests, by result",
			},
			[]string{"result"},
		),
		ActiveFlows: f.NewGauge(prometheus.GaugeOpts{
			Name: "plan_change_active_flows",
			Help: "Plan change flows currently held in memory",
		}),
	}
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// RecordProration increments the calculation counter for source.
func (m *Metrics) RecordProration(source string) {
	if m == nil {
		return
	}
	m.ProrationCalculations.WithLabelValues(source).Inc()
}

// RecordFallback increments the fallback counter.
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.ProrationFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.PlanChangeTransitions.WithLabelValues(from, to).Inc()
}

// RecordCheckout increments the checkout counter.
func (m *Metrics) RecordCheckout(success bool) {
	if m == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	m.CheckoutSessions.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveFlows(n int) {
	if m == nil {
		return
	}
	m.ActiveFlows.Set(float64(n))
}

// Package metrics provides Prometheus metrics for the chat service
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/internal/jobs"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Dialogue metrics
	TurnsTotal       *prometheus.CounterVec
	TurnsInFlight    prometheus.Gauge
	TransitionsTotal *prometheus.CounterVec
	FallbacksTotal   prometheus.Counter
	SentimentScore   prometheus.Histogram

	// Image job metrics
	ImageJobsTotal   *prometheus.CounterVec
	ImageJobDuration prometheus.Histogram
	WebsocketClients prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates and registers all metrics on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	m := &Metrics{gatherer: reg}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingua_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	m.TurnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_turns_total",
			Help: "Total number of chat turns by input kind",
		},
		[]string{"input_kind"},
	)

	m.TurnsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "lingua_turns_in_flight",
			Help: "Number of chat turns currently being processed",
		},
	)

	m.TransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_dialogue_transitions_total",
			Help: "Dialogue state transitions",
		},
		[]string{"from", "to"},
	)

	m.FallbacksTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "lingua_dialogue_fallbacks_total",
			Help: "Turns answered with the fallback response after a collaborator failed",
		},
	)

	m.SentimentScore = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lingua_sentiment_polarity",
			Help:    "Polarity of user utterances",
			Buckets: []float64{-1, -0.5, -0.1, 0, 0.1, 0.5, 1},
		},
	)

	m.ImageJobsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_image_jobs_total",
			Help: "Image generation jobs by final status",
		},
		[]string{"status"},
	)

	m.ImageJobDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lingua_image_job_duration_seconds",
			Help:    "Wall time of finished image generation jobs",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	m.WebsocketClients = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "lingua_websocket_clients",
			Help: "Connected websocket clients",
		},
	)

	return m
}

// RecordRequest records an HTTP request
func (m *Metrics) RecordRequest(endpoint, method string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordTurn records a finished dialogue turn
func (m *Metrics) RecordTurn(kind entities.InputKind, from, to entities.DialogueState, sentiment float64, fallback bool) {
	m.TurnsTotal.WithLabelValues(string(kind)).Inc()
	m.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	m.SentimentScore.Observe(sentiment)
	if fallback {
		m.FallbacksTotal.Inc()
	}
}

// ObserveJob is a jobs.Manager listener that counts finished jobs
func (m *Metrics) ObserveJob(event jobs.Event) {
	switch event.Type {
	case jobs.EventJobSucceeded, jobs.EventJobFailed:
	default:
		return
	}
	m.ImageJobsTotal.WithLabelValues(string(event.Job.Status)).Inc()
	if event.Job.StartedAt != nil && event.Job.CompletedAt != nil {
		m.ImageJobDuration.Observe(event.Job.CompletedAt.Sub(*event.Job.StartedAt).Seconds())
	}
}

// Middleware records request counts and latency by route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}
			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			m.RecordRequest(endpoint, c.Request().Method, status, time.Since(start))
			return err
		}
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

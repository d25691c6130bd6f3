package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sheetOpDuration *prometheus.HistogramVec
	remindersSent   *prometheus.CounterVec
	emailFailures   prometheus.Counter
}

// NewMetricsService registers the portal's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	sheetOpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sheet_op_duration_seconds",
		Help:    "Duration of signup sheet load/save cycles",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	remindersSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_sent_total",
		Help: "Total reminder emails dispatched by the sweep",
	}, []string{"window"})

	emailFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "email_failures_total",
		Help: "Total outbound email dispatch failures",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, sheetOpDuration, remindersSent, emailFailures, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sheetOpDuration: sheetOpDuration,
		remindersSent:   remindersSent,
		emailFailures:   emailFailures,
	}
}

// Handler returns the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveSheetOp records one whole-file sheet operation.
func (s *MetricsService) ObserveSheetOp(op string, duration time.Duration) {
	if s == nil {
		return
	}
	s.sheetOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// CountReminder records a dispatched reminder.
func (s *MetricsService) CountReminder(window string) {
	if s == nil {
		return
	}
	s.remindersSent.WithLabelValues(window).Inc()
}

// CountEmailFailure records an outbound email failure.
func (s *MetricsService) CountEmailFailure() {
	if s == nil {
		return
	}
	s.emailFailures.Inc()
}

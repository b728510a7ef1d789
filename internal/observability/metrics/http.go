package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GaugeProbes exposes live engine state to the registry. A nil probe leaves
// its gauge unregistered.
type GaugeProbes struct {
	CacheEntries         func() float64
	QueueDepth           func() float64
	EscalationsRemaining func() float64
	AccruedCostUSD       func() float64
	AvoidedCostUSD       func() float64
}

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	resolveTotal    *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	feedbackTotal   *prometheus.CounterVec
	suggestTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string, probes GaugeProbes) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qae",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qae",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "qae",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	resolveTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qae",
			Subsystem: "resolve",
			Name:      "resolutions_total",
			Help:      "Total resolved questions by answer source.",
		},
		[]string{"service", "source"},
	)
	resolveDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qae",
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Question resolution duration in seconds by answer source.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	feedbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qae",
			Subsystem: "feedback",
			Name:      "submissions_total",
			Help:      "Total accepted feedback submissions by kind.",
		},
		[]string{"service", "kind"},
	)
	suggestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qae",
			Subsystem: "suggest",
			Name:      "requests_total",
			Help:      "Total type-ahead suggestion requests.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		resolveTotal,
		resolveDuration,
		feedbackTotal,
		suggestTotal,
	)
	registerGauges(registry, service, probes)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		resolveTotal:    resolveTotal,
		resolveDuration: resolveDuration,
		feedbackTotal:   feedbackTotal,
		suggestTotal:    suggestTotal,
	}
}

func registerGauges(registry *prometheus.Registry, service string, probes GaugeProbes) {
	gauge := func(subsystem, name, help string, probe func() float64) {
		if probe == nil {
			return
		}
		registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "qae",
				Subsystem: subsystem,
				Name:      name,
				Help:      help,
				ConstLabels: prometheus.Labels{
					"service": service,
				},
			},
			probe,
		))
	}

	gauge("cache", "entries", "Live result cache entries.", probes.CacheEntries)
	gauge("replay", "queue_depth", "Offline items waiting for replay.", probes.QueueDepth)
	gauge("cost", "escalations_remaining", "Escalation allowance left in the current period.", probes.EscalationsRemaining)
	gauge("cost", "accrued_usd", "Accrued generative spend in USD for the current period.", probes.AccruedCostUSD)
	gauge("cost", "avoided_usd", "Estimated avoided generative spend in USD for the current period.", probes.AvoidedCostUSD)
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/related/"):
		return "/v1/related/{entry_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordResolution(service, source string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	m.resolveTotal.WithLabelValues(service, source).Inc()
	m.resolveDuration.WithLabelValues(service, source).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordFeedback(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.feedbackTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordSuggestRequest(service string) {
	m.suggestTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	replayTotal    *prometheus.CounterVec
	replayDuration *prometheus.HistogramVec
	queueDepth     prometheus.Gauge
	droppedTotal   *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	replayTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qae",
			Subsystem: "replay",
			Name:      "items_total",
			Help:      "Total replayed offline items by status.",
		},
		[]string{"service", "status"},
	)
	replayDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qae",
			Subsystem: "replay",
			Name:      "drain_duration_seconds",
			Help:      "Duration of one offline queue drain pass.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	queueDepth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "qae",
			Subsystem: "replay",
			Name:      "queue_depth",
			Help:      "Offline items waiting for replay.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	droppedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qae",
			Subsystem: "replay",
			Name:      "dropped_total",
			Help:      "Offline items dropped after exhausting the retry cap.",
		},
		[]string{"service"},
	)

	registry.MustRegister(replayTotal, replayDuration, queueDepth, droppedTotal)

	return &WorkerMetrics{
		registry:       registry,
		replayTotal:    replayTotal,
		replayDuration: replayDuration,
		queueDepth:     queueDepth,
		droppedTotal:   droppedTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveDrain(service string, processed, dropped int, duration time.Duration) {
	if processed > 0 {
		m.replayTotal.WithLabelValues(service, "replayed").Add(float64(processed))
	}
	if dropped > 0 {
		m.replayTotal.WithLabelValues(service, "dropped").Add(float64(dropped))
		m.droppedTotal.WithLabelValues(service).Add(float64(dropped))
	}
	m.replayDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *WorkerMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

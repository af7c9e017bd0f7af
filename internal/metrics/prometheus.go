package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every metric of the service. It satisfies the engine's
// Recorder interface.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Level lifecycle
	levelsAllocated prometheus.Counter
	levelsScored    *prometheus.CounterVec
	rejections      *prometheus.CounterVec

	// Label reconciliation
	labelsChanged      prometheus.Counter
	reconcileRuns      prometheus.Counter
	reconcileDurations prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager. Without WithRegistry it registers
// on a fresh registry rather than the process-wide default.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "memento",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.levelsAllocated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "levels_allocated_total",
		Help:      "Total number of levels allocated",
	})
	m.levelsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "levels_scored_total",
		Help:      "Total number of levels scored, by outcome",
	}, []string{"passed"})
	m.rejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rejections_total",
		Help:      "Requests refused with a business outcome, by operation and kind",
	}, []string{"op", "kind"})

	m.labelsChanged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "label_counts_corrected_total",
		Help:      "Total number of video label counts corrected by the reconciler",
	})
	m.reconcileRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "label_reconcile_runs_total",
		Help:      "Total number of completed label reconciliation passes",
	})
	m.reconcileDurations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "label_reconcile_duration_seconds",
		Help:      "Duration of label reconciliation passes",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route and method",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// Registry returns the registry metrics are served from.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// LevelAllocated counts an allocated level.
func (m *Manager) LevelAllocated() {
	if !m.enabled {
		return
	}
	m.levelsAllocated.Inc()
}

// LevelScored counts a scored level.
func (m *Manager) LevelScored(passed bool) {
	if !m.enabled {
		return
	}
	m.levelsScored.WithLabelValues(strconv.FormatBool(passed)).Inc()
}

// Rejected counts a business outcome.
func (m *Manager) Rejected(op, kind string) {
	if !m.enabled {
		return
	}
	m.rejections.WithLabelValues(op, kind).Inc()
}

// LabelsReconciled records one reconciliation pass.
func (m *Manager) LabelsReconciled(changed int64, took time.Duration) {
	if !m.enabled {
		return
	}
	m.reconcileRuns.Inc()
	m.labelsChanged.Add(float64(changed))
	m.reconcileDurations.Observe(took.Seconds())
}

// ObserveHTTP records one served request. route is the route template, not
// the raw path.
func (m *Manager) ObserveHTTP(route, method string, status int, took time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(took.Seconds())
}

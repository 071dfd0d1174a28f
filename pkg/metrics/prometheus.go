// Package metrics provides Prometheus metrics for the peakform forecasting
// engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Calibration metrics - the expensive stage worth watching.
	calibrationsTotal    *prometheus.CounterVec
	calibrationDuration  prometheus.Histogram
	calibrationFallbacks *prometheus.CounterVec

	// Cache metrics.
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Planning and prediction metrics.
	planBuilds       prometheus.Counter
	planCeilingMiss  prometheus.Counter
	predictionsTotal *prometheus.CounterVec

	// Background calibration job metrics.
	queueDepth    prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge
	jobsProcessed prometheus.Counter
	jobErrors     prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "peakform",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.calibrationsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "calibrations_total",
			Help:      "Total number of completed model calibrations by resulting confidence",
		},
		[]string{"confidence"},
	)

	m.calibrationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_duration_seconds",
		Help:      "Histogram of model calibration duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.calibrationFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "calibration_fallbacks_total",
			Help:      "Total number of calibrations that fell back to the default prior, by reason",
		},
		[]string{"reason"},
	)

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_cache_hits_total",
		Help:      "Total number of calibration results served from the model cache",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_cache_misses_total",
		Help:      "Total number of model cache misses triggering recalibration",
	})

	m.planBuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "plan_builds_total",
		Help:      "Total number of load trajectories built",
	})

	m.planCeilingMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "plan_ceiling_missed_total",
		Help:      "Total number of trajectories that could not reach the load ceiling in the available weeks",
	})

	m.predictionsTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "predictions_total",
			Help:      "Total number of race predictions produced by confidence",
		},
		[]string{"confidence"},
	)

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_queue_depth",
		Help:      "Current number of queued background calibration jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_queue_capacity",
		Help:      "Configured capacity of the background calibration queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_workers",
		Help:      "Current number of background calibration workers",
	})

	m.jobsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_jobs_processed_total",
		Help:      "Total number of background calibration jobs completed",
	})

	m.jobErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_job_errors_total",
		Help:      "Total number of background calibration jobs that failed",
	})
}

// Handler exposes the custom registry for scraping; callers embed it in
// whatever HTTP surface they run.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Gatherer returns the registry backing the global manager.
func Gatherer() prometheus.Gatherer {
	return customRegistry
}

// RecordCalibration counts a completed calibration by confidence level.
func RecordCalibration(confidence string) {
	if globalManager.enabled {
		globalManager.calibrationsTotal.WithLabelValues(confidence).Inc()
	}
}

// RecordCalibrationDuration observes one calibration's wall time in seconds.
func RecordCalibrationDuration(seconds float64) {
	if globalManager.enabled {
		globalManager.calibrationDuration.Observe(seconds)
	}
}

// RecordCalibrationFallback counts a fallback to the default prior.
func RecordCalibrationFallback(reason string) {
	if globalManager.enabled {
		globalManager.calibrationFallbacks.WithLabelValues(reason).Inc()
	}
}

// RecordCacheHit counts a calibration served from cache.
func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss() {
	if globalManager.enabled {
		globalManager.cacheMisses.Inc()
	}
}

// RecordPlanBuild counts a built trajectory, tracking ceiling misses.
func RecordPlanBuild(ceilingReached bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.planBuilds.Inc()
	if !ceilingReached {
		globalManager.planCeilingMiss.Inc()
	}
}

// RecordPrediction counts a produced race prediction by confidence level.
func RecordPrediction(confidence string) {
	if globalManager.enabled {
		globalManager.predictionsTotal.WithLabelValues(confidence).Inc()
	}
}

// UpdateQueueDepth sets the current background queue depth.
func UpdateQueueDepth(depth int) {
	if globalManager.enabled {
		globalManager.queueDepth.Set(float64(depth))
	}
}

// UpdateQueueCapacity sets the configured background queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateWorkerCount sets the current background worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordJobProcessed counts a completed background calibration job.
func RecordJobProcessed() {
	if globalManager.enabled {
		globalManager.jobsProcessed.Inc()
	}
}

// RecordJobError counts a failed background calibration job.
func RecordJobError() {
	if globalManager.enabled {
		globalManager.jobErrors.Inc()
	}
}

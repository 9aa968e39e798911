// Package metrics provides Prometheus metrics for simulation runs.
//
// The process is a batch job, so nothing is scraped: metrics accumulate on a
// private registry and are written once as a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the simulation engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	// Run metrics
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	matchesProcessed prometheus.Counter
	matchesEvaluated prometheus.Counter
	candidates       prometheus.Gauge
	activeShards     prometheus.Gauge
	bestScore        *prometheus.GaugeVec

	// Store metrics
	playersTracked    prometheus.Gauge
	storeQueryLatency prometheus.Histogram

	// Loader metrics
	matchesLoaded  prometheus.Counter
	seasonsLoaded  prometheus.Gauge
	surfacesFolded prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "surfelo",
		subsystem:        "engine",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		constLabels:      map[string]string{},
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Registry returns the registry this manager registered on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Completed simulation passes by mode (search or selected)",
		ConstLabels: m.constLabels,
	}, []string{"mode"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall time of a full simulation pass",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"mode"})

	m.matchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matches_processed_total",
		Help:        "Matches fed through the update rule (per shard pass)",
		ConstLabels: m.constLabels,
	})

	m.matchesEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matches_evaluated_total",
		Help:        "Matches inside the evaluation window",
		ConstLabels: m.constLabels,
	})

	m.candidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates",
		Help:        "Candidate parameter settings in the last run",
		ConstLabels: m.constLabels,
	})

	m.activeShards = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "active_shards",
		Help:        "Candidate shards currently being simulated",
		ConstLabels: m.constLabels,
	})

	m.bestScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "best_score",
		Help:        "Best per-match statistic of the last ranked run",
		ConstLabels: m.constLabels,
	}, []string{"metric"})

	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "players_tracked",
		Help:        "Distinct players held by the player state store",
		ConstLabels: m.constLabels,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_query_latency_milliseconds",
		Help:        "Player leaderboard query latency in milliseconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.constLabels,
	})

	m.matchesLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matches_loaded_total",
		Help:        "Match records read from season files",
		ConstLabels: m.constLabels,
	})

	m.seasonsLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "seasons_loaded",
		Help:        "Season files found in the configured range",
		ConstLabels: m.constLabels,
	})

	m.surfacesFolded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "surfaces_folded_total",
		Help:        "Records whose surface was not Clay, Grass or Hard and was folded into Grass",
		ConstLabels: m.constLabels,
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Total number of errors by component",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})
}

// RecordRun counts a completed pass and its duration in seconds.
func RecordRun(mode string, seconds float64) {
	globalManager.runsTotal.WithLabelValues(mode).Inc()
	globalManager.runDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordMatchesProcessed adds n matches fed through the update rule.
func RecordMatchesProcessed(n int) {
	globalManager.matchesProcessed.Add(float64(n))
}

// RecordMatchesEvaluated adds n matches counted in the evaluation window.
func RecordMatchesEvaluated(n int) {
	globalManager.matchesEvaluated.Add(float64(n))
}

// UpdateCandidates sets the candidate count of the current run.
func UpdateCandidates(n int) {
	globalManager.candidates.Set(float64(n))
}

// IncActiveShards marks a shard as started.
func IncActiveShards() { globalManager.activeShards.Inc() }

// DecActiveShards marks a shard as finished.
func DecActiveShards() { globalManager.activeShards.Dec() }

// UpdateBestScore records the best value of a statistic after ranking.
func UpdateBestScore(metric string, v float64) {
	globalManager.bestScore.WithLabelValues(metric).Set(v)
}

// UpdatePlayersTracked sets the number of players in the state store.
func UpdatePlayersTracked(n int) {
	globalManager.playersTracked.Set(float64(n))
}

// RecordStoreQueryLatency records a leaderboard query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordMatchesLoaded adds n loaded match records.
func RecordMatchesLoaded(n int) {
	globalManager.matchesLoaded.Add(float64(n))
}

// UpdateSeasonsLoaded sets the number of season files read.
func UpdateSeasonsLoaded(n int) {
	globalManager.seasonsLoaded.Set(float64(n))
}

// RecordSurfaceFolded counts a surface name normalized into Grass.
func RecordSurfaceFolded() {
	globalManager.surfacesFolded.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteTextfile, path, err)
	}
	return nil
}

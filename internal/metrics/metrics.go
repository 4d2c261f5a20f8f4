package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorialforge_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"status"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorialforge_cache_lookups_total",
			Help: "Response cache lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "bypass"
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorialforge_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~2000s
		},
		[]string{"stage", "status"},
	)

	chaptersGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorialforge_chapters_generated_total",
			Help: "Total number of tutorial chapters drafted",
		},
	)
)

// Collector provides convenience methods for recording metrics.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// RecordLLMRequest records a model request duration.
func (c *Collector) RecordLLMRequest(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	llmRequestDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache lookup outcome: hit, miss, or bypass.
func (c *Collector) RecordCacheLookup(outcome string) {
	cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordStage records a completed stage execution.
func (c *Collector) RecordStage(stage string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	stageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// IncrementChapters increments the drafted chapter counter.
func (c *Collector) IncrementChapters() {
	chaptersGenerated.Inc()
}

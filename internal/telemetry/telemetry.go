package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/deepresearch/config"
)

// Package-level collectors so multiple Telemetry instances (tests, server +
// mcp in one process) never double-register against the default registry.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_runs_total",
		Help: "Pipeline runs by outcome.",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deepresearch_run_duration_seconds",
		Help:    "End-to-end pipeline run duration.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	toolErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_tool_errors_total",
		Help: "Absorbed tool failures by tool name.",
	}, []string{"tool"})

	droppedReferencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepresearch_dropped_references_total",
		Help: "Answer references rejected because their URL was not in the scraped set.",
	})

	llmTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_llm_tokens_total",
		Help: "LLM token usage by model and direction.",
	}, []string{"model", "direction"})
)

// Telemetry provides run monitoring and LLM token/cost accounting.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	mu          sync.Mutex
	totalRuns   int64
	failedRuns  int64
	totalTokens int64
	tokensByUse map[string]int64
}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		config:      cfg,
		logger:      log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		tokensByUse: make(map[string]int64),
	}
}

// RecordRun records the outcome of one pipeline run.
func (t *Telemetry) RecordRun(duration time.Duration, success bool) {
	if t == nil || !t.config.Enabled {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(duration.Seconds())

	t.mu.Lock()
	t.totalRuns++
	if !success {
		t.failedRuns++
	}
	t.mu.Unlock()

	if t.config.PeriodicLogs {
		t.logger.Printf("run finished in %v (success=%v)", duration, success)
	}
}

// RecordToolError records an absorbed search/scrape failure.
func (t *Telemetry) RecordToolError(tool string) {
	if t == nil || !t.config.Enabled {
		return
	}
	toolErrorsTotal.WithLabelValues(tool).Inc()
}

// RecordDroppedReferences records references removed by grounding verification.
func (t *Telemetry) RecordDroppedReferences(n int) {
	if t == nil || !t.config.Enabled || n <= 0 {
		return
	}
	droppedReferencesTotal.Add(float64(n))
}

// RecordLLMUsage records token usage for one model call.
func (t *Telemetry) RecordLLMUsage(model, agent string, inputTokens, outputTokens int64) {
	if t == nil || !t.config.Enabled {
		return
	}
	llmTokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	llmTokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))

	if !t.config.CostTracking {
		return
	}
	t.mu.Lock()
	t.totalTokens += inputTokens + outputTokens
	t.tokensByUse[agent] += inputTokens + outputTokens
	t.mu.Unlock()
}

// Summary logs aggregate counters. Called on shutdown.
func (t *Telemetry) Summary() {
	if t == nil || !t.config.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger.Printf("runs=%d failed=%d llm_tokens=%d by_agent=%v",
		t.totalRuns, t.failedRuns, t.totalTokens, t.tokensByUse)
}

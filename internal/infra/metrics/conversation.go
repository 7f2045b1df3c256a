package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		conversationTurns,
		completionLatencyMs,
		completionFailures,
		contextSummaryFailures,
		promptTokens,
		historyResets,
		historyPruned,
	)
}

var (
	conversationTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_turns_total",
			Help: "Processed utterances per entry and result (ok|failed).",
		},
		[]string{"entry", "result"},
	)

	completionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_latency_ms",
			Help:    "Chat completion latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 20000, 30000},
		},
		[]string{"model", "outcome"},
	)

	completionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_failures_total",
			Help: "Failed chat completions by kind (timeout|request|malformed|internal).",
		},
		[]string{"kind"},
	)

	contextSummaryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "context_summary_failures_total",
			Help: "Home state snapshots that could not be retrieved.",
		},
	)

	promptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_tokens_estimate",
			Help:    "Estimated prompt tokens per completion request.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 8),
		},
		[]string{"model"},
	)

	historyPruned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_pruned_users_total",
			Help: "User transcripts dropped after being idle.",
		},
		[]string{"entry"},
	)

	historyResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_resets_total",
			Help: "Session reloads that discarded in-memory history.",
		},
		[]string{"entry"},
	)
)

func IncTurn(entry string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	conversationTurns.WithLabelValues(norm(entry), result).Inc()
}

// ObserveCompletion records latency with outcome "ok" or the failure kind.
func ObserveCompletion(model, outcome string, latencyMs int64) {
	completionLatencyMs.WithLabelValues(norm(model), norm(outcome)).Observe(float64(latencyMs))
}

func IncCompletionFailure(kind string) {
	completionFailures.WithLabelValues(norm(kind)).Inc()
}

func IncContextSummaryFailure() {
	contextSummaryFailures.Inc()
}

func ObservePromptTokens(model string, n int) {
	promptTokens.WithLabelValues(norm(model)).Observe(float64(n))
}

func IncHistoryReset(entry string) {
	historyResets.WithLabelValues(norm(entry)).Inc()
}

func AddHistoryPruned(entry string, n int) {
	historyPruned.WithLabelValues(norm(entry)).Add(float64(n))
}

// Package monitor exposes Prometheus metrics for model invocations and evaluation runs.
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "prompt_studio"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	// OutcomeCanceled marks calls abandoned because the caller went away.
	OutcomeCanceled = "canceled"
)

var (
	vendorInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_invocations_total",
		Help:      "Model invocations by transport, model and outcome.",
	}, []string{"transport", "model", "outcome"})

	vendorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "vendor_invocation_duration_seconds",
		Help:      "Latency of model invocations.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"transport", "model"})

	evaluationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluation_runs_total",
		Help:      "Evaluation runs by algorithm and outcome.",
	}, []string{"algorithm", "outcome"})

	evaluationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Wall time of evaluation runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"algorithm"})

	evaluationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "evaluations_in_flight",
		Help:      "Evaluation runs currently executing.",
	})

	neutralJudgements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "judge_neutral_scores_total",
		Help:      "Judge replies that were neither Y nor N and scored 0.5.",
	}, []string{"judge"})
)

// ObserveInvocation records one model call.
func ObserveInvocation(transport, model, outcome string, elapsed time.Duration) {
	vendorInvocations.WithLabelValues(transport, model, outcome).Inc()
	vendorLatency.WithLabelValues(transport, model).Observe(elapsed.Seconds())
}

// EvaluationStarted marks a run as in flight and returns the func that records its end.
func EvaluationStarted(algorithm string) func(outcome string) {
	start := time.Now()
	evaluationsInFlight.Inc()
	return func(outcome string) {
		evaluationsInFlight.Dec()
		evaluationRuns.WithLabelValues(algorithm, outcome).Inc()
		evaluationLatency.WithLabelValues(algorithm).Observe(time.Since(start).Seconds())
	}
}

// ObserveNeutralJudgement counts an ambiguous judge reply.
func ObserveNeutralJudgement(judge string) {
	neutralJudgements.WithLabelValues(judge).Inc()
}

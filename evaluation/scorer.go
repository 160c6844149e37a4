package evaluation

import (
	"context"
)

const (
	MetricExactMatch          = "exact_match_score"
	MetricQuasiExactMatch     = "quasi_exact_match_score"
	MetricPrecisionOverWords  = "precision_over_words"
	MetricRecallOverWords     = "recall_over_words"
	MetricF1                  = "f1_score"
	MetricExactInclusion      = "exact_inclusion"
	MetricQuasiExactInclusion = "quasi_exact_inclusion"
	MetricLLMJudgedAccuracy   = "llm_judged_accuracy"
)

// scorer grades one model output against its alternative targets.
type scorer interface {
	metrics() []string
	score(ctx context.Context, output string, targets []string) ([]EvalScore, error)
}

type metricFunc func(output, target string) float64

// maxOverTargets scores output against every target and keeps the best value per metric.
type maxOverTargets struct {
	names []string
	fns   []metricFunc
}

func (m maxOverTargets) metrics() []string { return m.names }

func (m maxOverTargets) score(_ context.Context, output string, targets []string) ([]EvalScore, error) {
	scores := make([]EvalScore, len(m.names))
	for i, name := range m.names {
		best := 0.0
		for _, t := range targets {
			if v := m.fns[i](output, t); v > best {
				best = v
			}
		}
		scores[i] = EvalScore{Name: name, Value: best}
	}
	return scores, nil
}

func qaAccuracyScorer() scorer {
	return maxOverTargets{
		names: []string{MetricF1, MetricExactMatch, MetricQuasiExactMatch, MetricPrecisionOverWords, MetricRecallOverWords},
		fns:   []metricFunc{f1Score, exactMatch, quasiExactMatch, precisionOverWords, recallOverWords},
	}
}

func factualKnowledgeScorer() scorer {
	return maxOverTargets{
		names: []string{MetricExactInclusion, MetricQuasiExactInclusion},
		fns:   []metricFunc{exactInclusion, quasiExactInclusion},
	}
}

// Package evaluation scores model answers against reference answers.
package evaluation

import (
	"strings"

	"github.com/Laisky/errors/v2"
)

// EvalAlgorithm names an evaluation method.
type EvalAlgorithm string

const (
	PromptStereotyping                       EvalAlgorithm = "prompt_stereotyping"
	FactualKnowledge                         EvalAlgorithm = "factual_knowledge"
	Toxicity                                 EvalAlgorithm = "toxicity"
	QAToxicity                               EvalAlgorithm = "qa_toxicity"
	SummarizationToxicity                    EvalAlgorithm = "summarization_toxicity"
	GeneralSemanticRobustness                EvalAlgorithm = "general_semantic_robustness"
	Accuracy                                 EvalAlgorithm = "accuracy"
	QAAccuracy                               EvalAlgorithm = "qa_accuracy"
	QAAccuracyByLLM                          EvalAlgorithm = "qa_accuracy_by_llm"
	QAAccuracySemanticRobustness             EvalAlgorithm = "qa_accuracy_semantic_robustness"
	SummarizationAccuracy                    EvalAlgorithm = "summarization_accuracy"
	SummarizationAccuracySemanticRobustness  EvalAlgorithm = "summarization_accuracy_semantic_robustness"
	ClassificationAccuracy                   EvalAlgorithm = "classification_accuracy"
	ClassificationAccuracySemanticRobustness EvalAlgorithm = "classification_accuracy_semantic_robustness"
)

// Evaluations are the algorithms offered to users, in display order.
var Evaluations = []EvalAlgorithm{QAAccuracy, QAAccuracyByLLM, FactualKnowledge}

// ErrUnsupportedAlgorithm is returned for algorithm names outside Evaluations.
var ErrUnsupportedAlgorithm = errors.New("evaluation algorithm not supported")

// ParseAlgorithm accepts any offered algorithm name, case-insensitively.
func ParseAlgorithm(name string) (EvalAlgorithm, error) {
	algo := EvalAlgorithm(strings.ToLower(strings.TrimSpace(name)))
	for _, a := range Evaluations {
		if a == algo {
			return a, nil
		}
	}
	return "", errors.Wrapf(ErrUnsupportedAlgorithm, "%q", name)
}

// DisplayName is the upper-case label shown in reports, e.g. "QA ACCURACY BY LLM".
func (a EvalAlgorithm) DisplayName() string {
	return strings.ToUpper(strings.ReplaceAll(string(a), "_", " "))
}

func (a EvalAlgorithm) String() string { return string(a) }

package model

import (
	"time"

	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

// EvaluationRecord is a completed run. Records are created only on success and never mutated.
type EvaluationRecord struct {
	Model          meta.ModelConfig
	Inference      adaptor.InferenceConfig
	PromptTemplate PromptTemplate
	EvalAlgo       evaluation.EvalAlgorithm
	DatasetID      string
	// NumRecords is the number of samples scored.
	NumRecords int
	StartTime  time.Time
	TimeTaken  time.Duration
	Summary    []evaluation.Output
	// Detail is the per-sample JSON Lines output kept for export.
	Detail []byte
}

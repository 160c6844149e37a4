package model

import (
	"bufio"
	"bytes"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/prompt-studio/common/helper"
	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

const (
	SummaryFileName = "eval_summary.json"
	DetailFileName  = "eval_results.jsonl"
)

// Summary is the downloadable description of one run.
type Summary struct {
	Model           meta.ModelConfig         `json:"model"`
	InferenceConfig adaptor.InferenceConfig  `json:"inference_config"`
	PromptTemplate  string                   `json:"prompt_template"`
	Results         []evaluation.Output      `json:"results"`
	StartTime       time.Time                `json:"start_time"`
	EvalAlgo        evaluation.EvalAlgorithm `json:"eval_algo"`
	TimeTaken       string                   `json:"time_taken"`
}

func NewSummary(rec *EvaluationRecord) Summary {
	return Summary{
		Model:           rec.Model,
		InferenceConfig: rec.Inference,
		PromptTemplate:  string(rec.PromptTemplate),
		Results:         rec.Summary,
		StartTime:       rec.StartTime,
		EvalAlgo:        rec.EvalAlgo,
		TimeTaken:       helper.FormatDuration(rec.TimeTaken),
	}
}

// SummaryJSON renders the eval_summary.json download.
func SummaryJSON(rec *EvaluationRecord) ([]byte, error) {
	b, err := json.MarshalIndent(NewSummary(rec), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal evaluation summary")
	}
	return b, nil
}

// DetailSamples decodes up to n lines of the per-sample detail for display.
func DetailSamples(rec *EvaluationRecord, n int) ([]evaluation.SampleResult, error) {
	var out []evaluation.SampleResult
	sc := bufio.NewScanner(bytes.NewReader(rec.Detail))
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() && len(out) < n {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var s evaluation.SampleResult
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, errors.Wrap(err, "decode evaluation detail")
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read evaluation detail")
	}
	return out, nil
}

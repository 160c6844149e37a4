package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/claude"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

func TestSummaryJSON(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &EvaluationRecord{
		Model:          meta.ModelConfig{Type: channeltype.Bedrock, ModelID: "anthropic.claude-v2"},
		Inference:      claude.DefaultTextConfig("cfg"),
		PromptTemplate: "Q: {question}",
		EvalAlgo:       evaluation.QAAccuracy,
		StartTime:      start,
		TimeTaken:      1500 * time.Millisecond,
		Summary: []evaluation.Output{{
			EvalName:      evaluation.QAAccuracy,
			DatasetName:   "squad",
			DatasetScores: []evaluation.EvalScore{{Name: evaluation.MetricF1, Value: 0.5}},
		}},
		Detail: []byte(`{"model_input":"q","model_output":"a","target_output":"a","scores":[]}` + "\n"),
	}

	b, err := SummaryJSON(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"model", "inference_config", "prompt_template", "results", "start_time", "eval_algo", "time_taken"} {
		require.Contains(t, m, key)
	}
	require.Equal(t, "Q: {question}", m["prompt_template"])
	require.Equal(t, "1.5s", m["time_taken"])
	require.Equal(t, "anthropic.claude-v2", m["model"].(map[string]any)["model_id"])
	require.Equal(t, "cfg", m["inference_config"].(map[string]any)["config_id"])

	samples, err := DetailSamples(r, 10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, "a", samples[0].ModelOutput)
}

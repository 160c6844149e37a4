package evaluation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/prompt-studio/common/helper"
	"github.com/songquanpeng/prompt-studio/common/logger"
	"github.com/songquanpeng/prompt-studio/monitor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	relaymodel "github.com/songquanpeng/prompt-studio/relay/model"
)

// JudgePromptTemplate asks a model whether an answer agrees with the references.
const JudgePromptTemplate = `Human:
An AI model was asked a question for which the reference correct answer(s) were:

<ref-answers>
${target}
</ref-answers>

The model's answer was:

<model-answer>
${output}
</model-answer>

Did the model answer correctly in agreement with the provided reference(s)? Answer only Y for yes
or N for no, and do not include any other information or reasoning.

Assistant:
`

// NeutralScore is assigned when a judge reply is neither Y nor N.
const NeutralScore = 0.5

// Judge is a model used to grade answers.
type Judge struct {
	Runner adaptor.Runner
	// Structured sends the judge prompt as role-tagged messages JSON.
	Structured bool
}

// JudgePrompt renders the judge prompt for one answer.
func JudgePrompt(output string, targets []string) string {
	refs := make([]string, len(targets))
	for i, t := range targets {
		refs[i] = "<ref-answer>" + t + "</ref-answer>"
	}
	return strings.NewReplacer(
		"${target}", strings.Join(refs, "\n"),
		"${output}", output,
	).Replace(JudgePromptTemplate)
}

// ParseJudgement maps a judge reply to a score: Y is 1, N is 0, anything else is NeutralScore.
// The second result is false for replies that fell back to the neutral score.
func ParseJudgement(reply string) (float64, bool) {
	reply = strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.HasPrefix(reply, "Y"):
		return 1, true
	case strings.HasPrefix(reply, "N"):
		return 0, true
	default:
		return NeutralScore, false
	}
}

type llmJudgeScorer struct {
	judges []Judge
}

func (s llmJudgeScorer) metrics() []string { return []string{MetricLLMJudgedAccuracy} }

// score averages the judgements of every judge.
func (s llmJudgeScorer) score(ctx context.Context, output string, targets []string) ([]EvalScore, error) {
	prompt := JudgePrompt(output, targets)

	total := 0.0
	for _, j := range s.judges {
		p := prompt
		if j.Structured {
			msgs, err := relaymodel.ParseRoleTagged(prompt)
			if err != nil {
				return nil, errors.Wrap(err, "build judge messages")
			}
			b, err := json.Marshal(msgs)
			if err != nil {
				return nil, errors.Wrap(err, "marshal judge messages")
			}
			p = string(b)
		}

		reply, _, err := j.Runner.Predict(ctx, p)
		if err != nil {
			return nil, errors.Wrapf(err, "judge %s", j.Runner.ModelID())
		}
		v, clear := ParseJudgement(reply)
		if !clear {
			// kept neutral rather than failing the run; flagged for prompt review
			logger.Logger.Named("judge").Warn("ambiguous judge reply scored as neutral",
				zap.String("judge", j.Runner.ModelID()),
				zap.String("reply", helper.Snippet([]byte(reply), 80)),
				zap.Float64("score", v))
			monitor.ObserveNeutralJudgement(j.Runner.ModelID())
		}
		total += v
	}
	return []EvalScore{{Name: MetricLLMJudgedAccuracy, Value: total / float64(len(s.judges))}}, nil
}

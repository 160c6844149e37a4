package evaluation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/logger"
	"github.com/songquanpeng/prompt-studio/monitor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
)

// TargetDelimiter separates alternative reference answers in the staged input.
const TargetDelimiter = "<OR>"

// Evaluator runs one algorithm over a staged dataset.
type Evaluator struct {
	algo        EvalAlgorithm
	scorer      scorer
	concurrency int
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithConcurrency bounds parallel model calls within one run.
func WithConcurrency(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEvaluator builds an evaluator for algo. qa_accuracy_by_llm needs at least one judge.
func NewEvaluator(algo EvalAlgorithm, judges []Judge, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{algo: algo, concurrency: config.EvalConcurrency}
	switch algo {
	case QAAccuracy:
		e.scorer = qaAccuracyScorer()
	case FactualKnowledge:
		e.scorer = factualKnowledgeScorer()
	case QAAccuracyByLLM:
		if len(judges) == 0 {
			return nil, errors.New("qa_accuracy_by_llm needs at least one judge model")
		}
		e.scorer = llmJudgeScorer{judges: judges}
	default:
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "%q", algo)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	return e, nil
}

func (e *Evaluator) Algorithm() EvalAlgorithm { return e.algo }

// Metrics lists the dataset score names this evaluator produces.
func (e *Evaluator) Metrics() []string { return e.scorer.metrics() }

// Result is a finished run.
type Result struct {
	Outputs []Output
	// Detail holds one SampleResult JSON line per scored record, in dataset order.
	Detail     []byte
	NumRecords int
}

// Evaluate predicts and scores up to numRecords staged lines from input (0 means the configured
// default). Any failing record fails the whole run.
func (e *Evaluator) Evaluate(ctx context.Context, runner adaptor.Runner, input io.Reader, datasetName string, numRecords int) (result *Result, err error) {
	if numRecords <= 0 {
		numRecords = config.EvalDefaultNumRecords
	}
	lg := logger.Logger.Named("evaluation").With(
		zap.String("algorithm", string(e.algo)),
		zap.String("model", runner.ModelID()),
		zap.String("dataset", datasetName))

	done := monitor.EvaluationStarted(string(e.algo))
	defer func() { done(monitor.Outcome(err)) }()

	lines, err := readInput(input, numRecords)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("dataset has no records to evaluate")
	}

	start := time.Now()
	samples := make([]SampleResult, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, line := range lines {
		g.Go(func() error {
			output, _, err := runner.Predict(gctx, line.Prompt)
			if err != nil {
				return errors.Wrapf(err, "record %d", i+1)
			}
			scores, err := e.scorer.score(gctx, output, splitTargets(line.Answers, TargetDelimiter))
			if err != nil {
				return errors.Wrapf(err, "score record %d", i+1)
			}
			samples[i] = SampleResult{
				ModelInput:   line.Prompt,
				ModelOutput:  output,
				TargetOutput: line.Answers,
				Scores:       scores,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		lg.Warn("evaluation failed", zap.Error(err))
		return nil, err
	}

	detail, err := encodeDetail(samples)
	if err != nil {
		return nil, err
	}

	out := Output{
		EvalName:      e.algo,
		DatasetName:   datasetName,
		DatasetScores: aggregate(e.scorer.metrics(), samples),
	}
	lg.Info("evaluation finished",
		zap.Int("records", len(samples)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Any("scores", out.DatasetScores))

	return &Result{Outputs: []Output{out}, Detail: detail, NumRecords: len(samples)}, nil
}

func readInput(r io.Reader, limit int) ([]InputLine, error) {
	var lines []InputLine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() && len(lines) < limit {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var line InputLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, errors.Wrapf(err, "decode staged input line %d", len(lines)+1)
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read staged input")
	}
	return lines, nil
}

func encodeDetail(samples []SampleResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, s := range samples {
		if err := enc.Encode(s); err != nil {
			return nil, errors.Wrap(err, "encode sample result")
		}
	}
	return buf.Bytes(), nil
}

// aggregate takes the mean of each metric across samples.
func aggregate(metrics []string, samples []SampleResult) []EvalScore {
	sums := make(map[string]float64, len(metrics))
	for _, s := range samples {
		for _, sc := range s.Scores {
			sums[sc.Name] += sc.Value
		}
	}
	out := make([]EvalScore, len(metrics))
	for i, m := range metrics {
		out[i] = EvalScore{Name: m, Value: sums[m] / float64(len(samples))}
	}
	return out
}

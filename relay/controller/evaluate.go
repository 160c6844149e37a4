// Package controller runs one evaluation end to end: catalog lookup, runner construction,
// input staging and scoring.
package controller

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/prompt-studio/common/logger"
	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/model"
	"github.com/songquanpeng/prompt-studio/relay"
	"github.com/songquanpeng/prompt-studio/relay/catalog"
)

// EvalRequest selects what to evaluate. An empty ConfigID picks the model's first config.
type EvalRequest struct {
	ModelID        string
	ConfigID       string
	PromptTemplate model.PromptTemplate
	Algorithm      evaluation.EvalAlgorithm
	NumRecords     int
}

// Env holds the shared collaborators of a run.
type Env struct {
	Catalog *catalog.Catalog
	Deps    relay.Deps
	// Concurrency bounds parallel model calls; zero keeps the evaluator default.
	Concurrency int
}

// InvalidRequestError marks failures caused by the request rather than by the run.
type InvalidRequestError struct {
	Err error
}

func (e *InvalidRequestError) Error() string { return e.Err.Error() }

func (e *InvalidRequestError) Unwrap() error { return e.Err }

// IsInvalidRequest reports whether err was caused by a bad request.
func IsInvalidRequest(err error) bool {
	var target *InvalidRequestError
	return errors.As(err, &target)
}

func invalid(err error) error {
	return &InvalidRequestError{Err: err}
}

// RunEvaluation evaluates req against ds and returns the finished record.
func RunEvaluation(ctx context.Context, env Env, ds *model.Dataset, req EvalRequest) (*model.EvaluationRecord, error) {
	if ds == nil {
		return nil, invalid(model.ErrNoDataset)
	}
	if env.Catalog == nil {
		return nil, errors.New("model catalog not configured")
	}
	if err := req.PromptTemplate.Validate(); err != nil {
		return nil, invalid(errors.Wrap(err, "parse prompt template"))
	}

	modelCfg, infCfg, err := env.Catalog.Lookup(req.ModelID, req.ConfigID)
	if err != nil {
		return nil, invalid(err)
	}

	var opts []evaluation.Option
	if env.Concurrency > 0 {
		opts = append(opts, evaluation.WithConcurrency(env.Concurrency))
	}
	var judges []evaluation.Judge
	if req.Algorithm == evaluation.QAAccuracyByLLM {
		judge, err := buildJudge(ctx, env)
		if err != nil {
			return nil, err
		}
		judges = append(judges, judge)
	}
	evaluator, err := evaluation.NewEvaluator(req.Algorithm, judges, opts...)
	if err != nil {
		return nil, invalid(err)
	}

	runner, err := relay.GetRunner(ctx, env.Deps, modelCfg, infCfg)
	if err != nil {
		return nil, errors.Wrapf(err, "build runner for %s", modelCfg.ModelID)
	}

	staged, err := model.StageEvalInput(ds, req.PromptTemplate, infCfg.MessagesAPI())
	if err != nil {
		return nil, invalid(err)
	}
	defer func() {
		if cerr := staged.Close(); cerr != nil {
			logger.Logger.Warn("remove staged input", zap.String("path", staged.Path), zap.Error(cerr))
		}
	}()

	input, err := staged.Open()
	if err != nil {
		return nil, err
	}
	defer input.Close()

	start := time.Now()
	result, err := evaluator.Evaluate(ctx, runner, input, ds.ID, req.NumRecords)
	if err != nil {
		return nil, err
	}

	return &model.EvaluationRecord{
		Model:          modelCfg,
		Inference:      infCfg,
		PromptTemplate: req.PromptTemplate,
		EvalAlgo:       req.Algorithm,
		DatasetID:      ds.ID,
		NumRecords:     result.NumRecords,
		StartTime:      start,
		TimeTaken:      time.Since(start),
		Summary:        result.Outputs,
		Detail:         result.Detail,
	}, nil
}

func buildJudge(ctx context.Context, env Env) (evaluation.Judge, error) {
	modelCfg, infCfg, err := env.Catalog.Judge()
	if err != nil {
		return evaluation.Judge{}, err
	}
	runner, err := relay.GetRunner(ctx, env.Deps, modelCfg, infCfg)
	if err != nil {
		return evaluation.Judge{}, errors.Wrapf(err, "build judge runner for %s", modelCfg.ModelID)
	}
	return evaluation.Judge{Runner: runner, Structured: infCfg.MessagesAPI()}, nil
}

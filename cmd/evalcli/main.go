// Command evalcli runs evaluations from the terminal and prints a score matrix.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/songquanpeng/prompt-studio/common/awsconf"
	"github.com/songquanpeng/prompt-studio/common/client"
	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/secret"
	"github.com/songquanpeng/prompt-studio/common/storage"
	"github.com/songquanpeng/prompt-studio/model"
	"github.com/songquanpeng/prompt-studio/relay"
	"github.com/songquanpeng/prompt-studio/relay/catalog"
	rcontroller "github.com/songquanpeng/prompt-studio/relay/controller"
)

func main() {
	logger, err := glog.NewConsoleWithName("evalcli", glog.LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %+v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, os.Args[1:], os.Stdout); err != nil {
		logger.Error("evaluation run failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("all evaluations finished")
}

func run(ctx context.Context, logger glog.Logger, args []string, stdout io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return errors.Wrap(err, "parse options")
	}

	awsCfg, err := awsconf.Load(ctx)
	if err != nil {
		return err
	}
	client.Init()

	loc, err := storage.ParseLocation(opts.Dataset)
	if err != nil {
		return err
	}
	data, err := storage.NewLoader(s3.NewFromConfig(awsCfg)).Load(ctx, loc)
	if err != nil {
		return errors.Wrap(err, "load dataset")
	}
	ds, _, err := model.NewDataset(config.DefaultDatasetID, loc.Name(), data, opts.RefAnswerField, config.DisplayMaxQuestions)
	if err != nil {
		return errors.Wrap(err, "invalid dataset")
	}

	tpl, err := opts.promptTemplate()
	if err != nil {
		return err
	}

	cat := catalog.Default()
	env := rcontroller.Env{
		Catalog: cat,
		Deps: relay.Deps{
			Bedrock:    bedrockruntime.NewFromConfig(awsCfg),
			Secrets:    secret.NewCachedStore(secret.NewSecretsManagerStore(awsCfg), config.SecretCacheTTL),
			HTTPClient: client.HTTPClient,
		},
		Concurrency: opts.Concurrency,
	}

	models := opts.Models
	if len(models) == 0 {
		models = cat.ListModelIDs()
	}
	logger.Info("starting evaluation sweep",
		zap.String("dataset", loc.String()),
		zap.String("eval_algo", opts.Algorithm.String()),
		zap.Int("num_records", opts.NumRecords),
		zap.Strings("models", models))

	results := evaluateModels(ctx, logger, env, ds, models, rcontroller.EvalRequest{
		ConfigID:       opts.ConfigID,
		PromptTemplate: tpl,
		Algorithm:      opts.Algorithm,
		NumRecords:     opts.NumRecords,
	})

	rep := buildReport(results)
	renderReport(stdout, rep)

	if rep.failedCount > 0 {
		return errors.Errorf("%d of %d models failed", rep.failedCount, len(results))
	}
	return nil
}

type modelResult struct {
	Model    string
	Record   *model.EvaluationRecord
	Err      error
	Duration time.Duration
}

// evaluateModels runs every model concurrently against ds. A failing model does not stop the
// others; results keep the order of models.
func evaluateModels(ctx context.Context, logger glog.Logger, env rcontroller.Env, ds *model.Dataset,
	models []string, req rcontroller.EvalRequest) []modelResult {
	results := make([]modelResult, len(models))

	grp, grpCtx := errgroup.WithContext(ctx)
	for i, modelID := range models {
		grp.Go(func() error {
			r := req
			r.ModelID = modelID
			start := time.Now()
			rec, err := rcontroller.RunEvaluation(grpCtx, env, ds, r)

			res := modelResult{Model: modelID, Record: rec, Err: err, Duration: time.Since(start)}
			if err != nil {
				logger.Warn("model evaluation failed", zap.String("model", modelID), zap.Error(err))
			} else {
				logger.Info("model evaluation finished",
					zap.String("model", modelID),
					zap.Int("records", rec.NumRecords),
					zap.Duration("duration", res.Duration))
			}

			results[i] = res
			return nil
		})
	}
	_ = grp.Wait()
	return results
}

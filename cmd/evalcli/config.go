package main

import (
	"flag"
	"os"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/prompt-studio/common"
	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/model"
)

// options captures the command line.
type options struct {
	Models         []string
	ConfigID       string
	Dataset        string
	TemplateFile   string
	Algorithm      evaluation.EvalAlgorithm
	NumRecords     int
	RefAnswerField string
	Concurrency    int
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("evalcli", flag.ContinueOnError)
	var (
		modelsRaw = fs.String("models", "", "comma separated model ids, all available models when empty")
		configID  = fs.String("config", "", "inference config id, the model's first config when empty")
		dataset   = fs.String("dataset", "", "JSON Lines dataset path or s3://bucket/key")
		tplFile   = fs.String("template", "", "prompt template file, the default template when empty")
		algo      = fs.String("algo", string(evaluation.QAAccuracy), "evaluation algorithm")
		num       = fs.Int("num-records", config.EvalDefaultNumRecords, "number of records to evaluate")
		refField  = fs.String("ref-field", config.DefaultRefAnswerField, "reference answer field")
		workers   = fs.Int("concurrency", config.EvalConcurrency, "parallel model calls per evaluation")
	)
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(*dataset) == "" {
		return options{}, errors.New("-dataset is required")
	}
	if *num < 0 {
		return options{}, errors.Errorf("-num-records must not be negative, got %d", *num)
	}
	parsedAlgo, err := evaluation.ParseAlgorithm(*algo)
	if err != nil {
		return options{}, err
	}

	return options{
		Models:         parseModels(*modelsRaw),
		ConfigID:       strings.TrimSpace(*configID),
		Dataset:        *dataset,
		TemplateFile:   strings.TrimSpace(*tplFile),
		Algorithm:      parsedAlgo,
		NumRecords:     *num,
		RefAnswerField: *refField,
		Concurrency:    *workers,
	}, nil
}

// parseModels tokenizes a comma, semicolon or newline separated model list.
func parseModels(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	normalized := raw
	for _, sep := range []string{";", "\n", "\r"} {
		normalized = strings.ReplaceAll(normalized, sep, ",")
	}

	var models []string
	seen := map[string]bool{}
	for _, part := range strings.Split(normalized, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		models = append(models, candidate)
	}
	return models
}

func (o options) promptTemplate() (model.PromptTemplate, error) {
	if o.TemplateFile == "" {
		return model.DefaultPromptTemplate, nil
	}
	b, err := os.ReadFile(common.ExpandPath(o.TemplateFile))
	if err != nil {
		return "", errors.Wrap(err, "read prompt template")
	}
	tpl := model.PromptTemplate(b)
	if err := tpl.Validate(); err != nil {
		return "", errors.Wrapf(err, "prompt template %s", o.TemplateFile)
	}
	return tpl, nil
}

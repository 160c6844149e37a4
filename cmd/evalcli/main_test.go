package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/model"
	"github.com/songquanpeng/prompt-studio/relay"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/cohere"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/titan"
	"github.com/songquanpeng/prompt-studio/relay/catalog"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	rcontroller "github.com/songquanpeng/prompt-studio/relay/controller"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

func TestParseModels(t *testing.T) {
	cases := map[string][]string{
		"amazon.titan-text-express-v1": {"amazon.titan-text-express-v1"},
		"a,b":                          {"a", "b"},
		"a; b \n c":                    {"a", "b", "c"},
		"  a  ,  b   ":                 {"a", "b"},
		"a\n\nb,a":                     {"a", "b"},
		"meta.llama3-8b-instruct-v1:0,cohere.command-text-v14": {"meta.llama3-8b-instruct-v1:0", "cohere.command-text-v14"},
	}

	for input, want := range cases {
		got := parseModels(input)
		if len(got) != len(want) {
			t.Fatalf("parseModels(%q) = %v, want %v", input, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("parseModels(%q)[%d] = %q, want %q", input, i, got[i], want[i])
			}
		}
	}

	if got := parseModels("   "); len(got) != 0 {
		t.Fatalf("parseModels empty = %v, want none", got)
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-dataset", "s3://b/k.jsonl", "-algo", "FACTUAL_KNOWLEDGE", "-num-records", "5", "-models", "a,b"})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if opts.Algorithm != evaluation.FactualKnowledge || opts.NumRecords != 5 || len(opts.Models) != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}

	bad := [][]string{
		{},
		{"-dataset", "d.jsonl", "-algo", "toxicity"},
		{"-dataset", "d.jsonl", "-num-records", "-1"},
		{"-dataset", "d.jsonl", "-unknown"},
	}
	for _, args := range bad {
		if _, err := parseOptions(args); err == nil {
			t.Fatalf("parseOptions(%v) expected error", args)
		}
	}
}

func TestPromptTemplateFile(t *testing.T) {
	opts := options{}
	tpl, err := opts.promptTemplate()
	if err != nil || tpl != model.DefaultPromptTemplate {
		t.Fatalf("default template not used: %v", err)
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	if err := os.WriteFile(good, []byte("Human: {question}\n\nAssistant:"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts.TemplateFile = good
	if tpl, err = opts.promptTemplate(); err != nil || !strings.Contains(string(tpl), "{question}") {
		t.Fatalf("template file not loaded: %q %v", tpl, err)
	}

	broken := filepath.Join(dir, "broken.txt")
	if err := os.WriteFile(broken, []byte("{question"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts.TemplateFile = broken
	if _, err = opts.promptTemplate(); err == nil {
		t.Fatal("expected error for unbalanced template")
	}
}

type fakeBedrock struct{}

func (fakeBedrock) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if strings.HasPrefix(aws.ToString(in.ModelId), "cohere.") {
		return nil, errors.New("throttled")
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(`{"results":[{"outputText":"Paris"}]}`)}, nil
}

func TestEvaluateModelsAndReport(t *testing.T) {
	logger, err := glog.NewConsoleWithName("evalcli-test", glog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	entry := func(id string, cfg adaptor.InferenceConfig) catalog.Entry {
		return catalog.Entry{
			Model:   meta.ModelConfig{Type: channeltype.Bedrock, ModelID: id},
			Configs: []adaptor.InferenceConfig{cfg},
		}
	}
	cat, err := catalog.New([]catalog.Entry{
		entry("amazon.titan-text-express-v1", titan.DefaultConfig("t")),
		entry("cohere.command-text-v14", cohere.DefaultConfig("c")),
	})
	if err != nil {
		t.Fatal(err)
	}
	ds, _, err := model.NewDataset("squad", "d.jsonl", []byte(`{"question":"q","answers":["Paris"]}`+"\n"), "answers", 10)
	if err != nil {
		t.Fatal(err)
	}

	env := rcontroller.Env{Catalog: cat, Deps: relay.Deps{Bedrock: fakeBedrock{}}}
	results := evaluateModels(context.Background(), logger, env, ds, cat.ListModelIDs(), rcontroller.EvalRequest{
		PromptTemplate: "{question}",
		Algorithm:      evaluation.QAAccuracy,
	})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil || results[1].Err == nil {
		t.Fatalf("unexpected outcomes: %v / %v", results[0].Err, results[1].Err)
	}

	rep := buildReport(results)
	if rep.failedCount != 1 {
		t.Fatalf("failedCount = %d, want 1", rep.failedCount)
	}
	if len(rep.metrics) != 5 || rep.metrics[0] != evaluation.MetricF1 {
		t.Fatalf("unexpected metrics %v", rep.metrics)
	}

	var out bytes.Buffer
	renderReport(&out, rep)
	text := out.String()
	for _, want := range []string{"amazon.titan-text-express-v1", "1.0000", "cohere.command-text-v14", "throttled", "1 succeeded, 1 failed"} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
}

func TestRenderReportEmpty(t *testing.T) {
	var out bytes.Buffer
	renderReport(&out, buildReport(nil))
	if !strings.Contains(out.String(), "no models to report") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

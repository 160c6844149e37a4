package aws

import (
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/claude"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/cohere"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/llama3"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/titan"
)

func firstKey(t *testing.T, body []byte) string {
	t.Helper()
	var key string
	gjson.ParseBytes(body).ForEach(func(k, _ gjson.Result) bool {
		key = k.String()
		return false
	})
	return key
}

func TestResolveFamily(t *testing.T) {
	cases := map[string]Family{
		"amazon.titan-text-express-v1":              FamilyTitan,
		"anthropic.claude-v2:1":                     FamilyClaude,
		"us.anthropic.claude-3-haiku-20240307-v1:0": FamilyClaude,
		"cohere.command-light-text-v14:7:4k":        FamilyCohere,
		"meta.llama3-8b-instruct-v1:0":              FamilyLlama,
	}
	for id, want := range cases {
		got, err := ResolveFamily(id)
		require.NoError(t, err, id)
		require.Equal(t, want, got, id)
	}

	for _, id := range []string{"unknown.vendor-x", "ai21.j2-ultra-v1", "amazon.titan-embed-text-v1"} {
		_, err := ResolveFamily(id)
		var unsupported *UnsupportedModelError
		require.True(t, errors.As(err, &unsupported), id)
		require.Equal(t, id, unsupported.ModelID)
	}
}

func TestComposeClaudeMessages(t *testing.T) {
	req, err := Compose("anthropic.claude-3-5-sonnet-20240620-v1:0", claude.DefaultMessagesConfig("cfg-1"))
	require.NoError(t, err)
	require.True(t, req.Structured)
	require.Equal(t, "content[0].text", req.OutputPath)

	body, err := req.Render(`[{"role":"user","content":[{"type":"text","text":"hi"}]}]`)
	require.NoError(t, err)
	require.Equal(t, "messages", firstKey(t, body))
	require.Equal(t, "hi", gjson.GetBytes(body, "messages.0.content.0.text").String())
	require.True(t, gjson.GetBytes(body, "messages").IsArray())
	require.Equal(t, "bedrock-2023-05-31", gjson.GetBytes(body, "anthropic_version").String())
	require.EqualValues(t, 200, gjson.GetBytes(body, "max_tokens").Int())
	require.False(t, gjson.GetBytes(body, "prompt").Exists())
	require.False(t, gjson.GetBytes(body, "config_id").Exists())
	require.False(t, gjson.GetBytes(body, "messages_api").Exists())
}

func TestComposeClaudeLegacy(t *testing.T) {
	cfg := claude.DefaultMessagesConfig("cfg-2")
	cfg.UseMessagesAPI = false
	req, err := Compose("anthropic.claude-3-5-sonnet-20240620-v1:0", cfg)
	require.NoError(t, err)
	require.False(t, req.Structured)
	require.Equal(t, "completion", req.OutputPath)

	body, err := req.Render("Human: hi\n\nAssistant:")
	require.NoError(t, err)
	require.Equal(t, "prompt", firstKey(t, body))
	require.Equal(t, "Human: hi\n\nAssistant:", gjson.GetBytes(body, "prompt").String())
	require.False(t, gjson.GetBytes(body, "messages_api").Exists())

	req, err = Compose("anthropic.claude-v2", claude.DefaultTextConfig("cfg-3"))
	require.NoError(t, err)
	body, err = req.Render("x")
	require.NoError(t, err)
	require.Equal(t, "\n\nHuman:", gjson.GetBytes(body, "stop_sequences.0").String())
	require.EqualValues(t, 250, gjson.GetBytes(body, "top_k").Int())
}

func TestComposeTitanNestsParams(t *testing.T) {
	req, err := Compose("amazon.titan-text-lite-v1", titan.DefaultConfig("cfg-t"))
	require.NoError(t, err)
	require.Equal(t, "results[0].outputText", req.OutputPath)

	body, err := req.Render(`say "hi"`)
	require.NoError(t, err)
	require.Equal(t, "inputText", firstKey(t, body))
	require.Equal(t, `say "hi"`, gjson.GetBytes(body, "inputText").String())
	require.EqualValues(t, 512, gjson.GetBytes(body, "textGenerationConfig.maxTokenCount").Int())
	require.False(t, gjson.GetBytes(body, "textGenerationConfig.config_id").Exists())
	require.False(t, gjson.GetBytes(body, "maxTokenCount").Exists())
}

func TestComposeCohereAndLlama(t *testing.T) {
	req, err := Compose("cohere.command-text-v14", cohere.DefaultConfig("c"))
	require.NoError(t, err)
	require.Equal(t, "generations[0].text", req.OutputPath)
	body, err := req.Render("q")
	require.NoError(t, err)
	require.EqualValues(t, 1, gjson.GetBytes(body, "p").Float())
	require.True(t, gjson.GetBytes(body, "k").Exists())

	req, err = Compose("meta.llama3-70b-instruct-v1:0", llama3.DefaultConfig("l"))
	require.NoError(t, err)
	require.Equal(t, "generation", req.OutputPath)
	body, err = req.Render("q")
	require.NoError(t, err)
	require.EqualValues(t, 512, gjson.GetBytes(body, "max_gen_len").Int())
	require.Equal(t, "q", gjson.GetBytes(body, "prompt").String())
}

func TestComposeErrors(t *testing.T) {
	_, err := Compose("unknown.vendor-x", llama3.DefaultConfig("l"))
	var unsupported *UnsupportedModelError
	require.True(t, errors.As(err, &unsupported))

	// messages convention on a family that lacks it
	_, err = Compose("meta.llama3-8b-instruct-v1:0", claude.DefaultMessagesConfig("m"))
	require.Error(t, err)

	var nilCfg adaptor.InferenceConfig
	_, err = Compose("meta.llama3-8b-instruct-v1:0", nilCfg)
	require.Error(t, err)
}

func TestRenderStructuredRejectsInvalidJSON(t *testing.T) {
	req, err := Compose("anthropic.claude-3-haiku-20240307-v1:0", claude.DefaultMessagesConfig("m"))
	require.NoError(t, err)
	_, err = req.Render("Human: not json")
	require.Error(t, err)
}

func TestRenderDoesNotMutateTemplate(t *testing.T) {
	req, err := Compose("meta.llama3-8b-instruct-v1:0", llama3.DefaultConfig("l"))
	require.NoError(t, err)
	before := string(req.Template)
	_, err = req.Render("first")
	require.NoError(t, err)
	require.Equal(t, before, string(req.Template))
	require.Equal(t, "null", gjson.GetBytes(req.Template, "prompt").Raw)
}

func TestExtractOutput(t *testing.T) {
	text, err := ExtractOutput([]byte(`{"results":[{"outputText":"42"}]}`), "results[0].outputText")
	require.NoError(t, err)
	require.Equal(t, "42", text)

	text, err = ExtractOutput([]byte(`{"content":[{"type":"text","text":"Y"}]}`), "content[0].text")
	require.NoError(t, err)
	require.Equal(t, "Y", text)

	_, err = ExtractOutput([]byte(`{"completion":"x"}`), "generation")
	require.Error(t, err)

	_, err = ExtractOutput([]byte(`not json`), "completion")
	require.Error(t, err)
}

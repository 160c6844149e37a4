package catalog

import (
	"sync"

	"github.com/songquanpeng/prompt-studio/common/random"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/claude"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/cohere"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/llama3"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/titan"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/openai"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

// OpenAIKeySecret names the secret holding the OpenAI API key.
const OpenAIKeySecret = "openai_key"

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the built-in catalog. Config ids are random per process, so clients must read
// them from the catalog rather than hard-coding them.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := New(DefaultEntries())
		if err != nil {
			panic("built-in model catalog is invalid: " + err.Error())
		}
		defaultCat = cat
	})
	return defaultCat
}

// DefaultEntries builds a fresh copy of the built-in entries. The first entry doubles as the
// answer judge.
func DefaultEntries() []Entry {
	claude3 := claude.DefaultMessagesConfig(random.GetUUID())
	claudeText := claude.DefaultTextConfig(random.GetUUID())
	cohereCfg := cohere.DefaultConfig(random.GetUUID())
	llamaCfg := llama3.DefaultConfig(random.GetUUID())
	titanCfg := titan.DefaultConfig(random.GetUUID())
	openaiCfg := openai.DefaultConfig(random.GetUUID())

	bedrock := func(id string, cfgs ...adaptor.InferenceConfig) Entry {
		return Entry{Model: meta.ModelConfig{Type: channeltype.Bedrock, ModelID: id}, Configs: cfgs}
	}
	chatgpt := func(id string) Entry {
		return Entry{
			Model: meta.ModelConfig{
				Type:         channeltype.OpenAI,
				ModelID:      id,
				APIKeySecret: OpenAIKeySecret,
				URL:          openai.DefaultURL,
			},
			Configs: []adaptor.InferenceConfig{openaiCfg},
		}
	}

	return []Entry{
		bedrock("anthropic.claude-3-haiku-20240307-v1:0", claude3),
		bedrock("anthropic.claude-3-sonnet-20240229-v1:0", claude3),
		bedrock("anthropic.claude-3-5-sonnet-20240620-v1:0", claude3),
		bedrock("anthropic.claude-3-opus-20240229-v1:0", claude3),
		bedrock("anthropic.claude-v2:1", claudeText),
		bedrock("anthropic.claude-v2", claudeText),
		bedrock("anthropic.claude-instant-v1", claudeText),
		bedrock("cohere.command-text-v14", cohereCfg),
		bedrock("cohere.command-light-text-v14:7:4k", cohereCfg),
		// AI21 Jurassic models are listed without configs and stay hidden.
		bedrock("ai21.j2-ultra-v1"),
		bedrock("ai21.j2-mid-v1"),
		bedrock("amazon.titan-text-express-v1", titanCfg),
		bedrock("amazon.titan-text-lite-v1", titanCfg),
		bedrock("meta.llama3-70b-instruct-v1:0", llamaCfg),
		bedrock("meta.llama3-8b-instruct-v1:0", llamaCfg),
		chatgpt(openai.DefaultModelID),
		chatgpt("gpt-4"),
		chatgpt("gpt-4o-mini"),
		chatgpt("gpt-4o"),
	}
}

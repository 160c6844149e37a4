// Package claude holds inference parameters for Anthropic Claude models on Bedrock.
//
// Claude v1 and v2 use the legacy text completion body ("prompt" in, "completion" out).
// Claude 3 and later use the Messages API ("messages" in, "content[0].text" out).
package claude

import (
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
)

const (
	// AnthropicVersion is the Bedrock flavor of the Anthropic API version header.
	AnthropicVersion = "bedrock-2023-05-31"
	// HumanStopSequence ends a completion when the model starts a new human turn.
	HumanStopSequence = "\n\nHuman:"
)

// samplingParams are shared by every Claude generation.
type samplingParams struct {
	Temperature float64 `json:"temperature" validate:"gte=0,lte=1"`
	TopP        float64 `json:"top_p" validate:"gte=0,lte=1"`
	TopK        int     `json:"top_k" validate:"gte=0,lte=500"`
}

// TextConfig configures Claude v1/v2 text completions.
type TextConfig struct {
	adaptor.BaseConfig
	samplingParams
	AnthropicVersion  string   `json:"anthropic_version" validate:"required"`
	MaxTokensToSample int      `json:"max_tokens_to_sample" validate:"gt=0"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
}

// MessagesConfig configures Claude 3+ through the Messages API.
type MessagesConfig struct {
	adaptor.BaseConfig
	samplingParams
	AnthropicVersion string `json:"anthropic_version" validate:"required"`
	MaxTokens        int    `json:"max_tokens" validate:"gt=0"`
	// UseMessagesAPI is normally true. A false value sends the legacy "prompt" body, which only
	// works for older Claude models.
	UseMessagesAPI bool `json:"messages_api"`
}

// MessagesAPI reports the configured calling convention.
func (c MessagesConfig) MessagesAPI() bool { return c.UseMessagesAPI }

func DefaultTextConfig(id string) *TextConfig {
	return &TextConfig{
		BaseConfig:        adaptor.BaseConfig{ID: id},
		samplingParams:    defaultSampling(),
		AnthropicVersion:  AnthropicVersion,
		MaxTokensToSample: 200,
		StopSequences:     []string{HumanStopSequence},
	}
}

func DefaultMessagesConfig(id string) *MessagesConfig {
	return &MessagesConfig{
		BaseConfig:       adaptor.BaseConfig{ID: id},
		samplingParams:   defaultSampling(),
		AnthropicVersion: AnthropicVersion,
		MaxTokens:        200,
		UseMessagesAPI:   true,
	}
}

func defaultSampling() samplingParams {
	return samplingParams{Temperature: 0.5, TopP: 1, TopK: 250}
}

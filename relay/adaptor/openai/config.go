// Package openai runs prompts against the OpenAI chat completions API.
package openai

import (
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
)

const (
	DefaultURL     = "https://api.openai.com/v1/chat/completions"
	DefaultModelID = "gpt-3.5-turbo"
)

// InferenceConfig holds chat completion sampling parameters.
type InferenceConfig struct {
	adaptor.BaseConfig
	// MaxTokens is sent only when set.
	MaxTokens        *int    `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Temperature      float64 `json:"temperature" validate:"gte=0,lte=2"`
	TopP             float64 `json:"top_p" validate:"gte=0,lte=1"`
	FrequencyPenalty float64 `json:"frequency_penalty" validate:"gte=-2,lte=2"`
	PresencePenalty  float64 `json:"presence_penalty" validate:"gte=-2,lte=2"`
}

func DefaultConfig(id string) *InferenceConfig {
	return &InferenceConfig{
		BaseConfig:  adaptor.BaseConfig{ID: id},
		Temperature: 1.0,
		TopP:        1.0,
	}
}

// Message is a chat message in the request and response.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat completions request body.
type ChatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	N                int       `json:"n"`
	Stream           bool      `json:"stream"`
	PresencePenalty  float64   `json:"presence_penalty"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
}

// ChatResponse keeps only the fields read from the reply.
type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

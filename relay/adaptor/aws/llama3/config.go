// Package llama3 holds inference parameters for Meta Llama models on Bedrock.
package llama3

import (
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
)

type InferenceConfig struct {
	adaptor.BaseConfig
	// MaxGenLen is Llama's name for the output token limit.
	MaxGenLen   int     `json:"max_gen_len" validate:"gt=0,lte=2048"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=1"`
	TopP        float64 `json:"top_p" validate:"gte=0,lte=1"`
}

func DefaultConfig(id string) *InferenceConfig {
	return &InferenceConfig{
		BaseConfig:  adaptor.BaseConfig{ID: id},
		MaxGenLen:   512,
		Temperature: 0.5,
		TopP:        0.9,
	}
}

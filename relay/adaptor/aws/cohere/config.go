// Package cohere holds inference parameters for Cohere Command models on Bedrock.
package cohere

import (
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
)

// InferenceConfig uses Cohere's short parameter names ("p", "k").
type InferenceConfig struct {
	adaptor.BaseConfig
	MaxTokens   int     `json:"max_tokens" validate:"gt=0,lte=4096"`
	P           float64 `json:"p" validate:"gte=0,lte=1"`
	K           int     `json:"k" validate:"gte=0,lte=500"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=5"`
}

func DefaultConfig(id string) *InferenceConfig {
	return &InferenceConfig{
		BaseConfig:  adaptor.BaseConfig{ID: id},
		MaxTokens:   200,
		P:           1,
		K:           0,
		Temperature: 0.5,
	}
}

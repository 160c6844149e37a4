// Package titan holds inference parameters for Amazon Titan text models on Bedrock.
package titan

import (
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
)

// InferenceConfig is nested under "textGenerationConfig" in the request body.
type InferenceConfig struct {
	adaptor.BaseConfig
	// MaxTokenCount caps the generated length.
	MaxTokenCount int `json:"maxTokenCount" validate:"gt=0,lte=8192"`
	// Temperature 0 makes Titan deterministic.
	Temperature float64 `json:"temperature" validate:"gte=0,lte=1"`
	TopP        float64 `json:"topP" validate:"gte=0,lte=1"`
	// StopSequences is omitted unless set; Titan only accepts "|" and "User:".
	StopSequences []string `json:"stopSequences,omitempty"`
}

// DefaultConfig returns the workshop defaults.
func DefaultConfig(id string) *InferenceConfig {
	return &InferenceConfig{
		BaseConfig:    adaptor.BaseConfig{ID: id},
		MaxTokenCount: 512,
		Temperature:   0,
		TopP:          1,
	}
}

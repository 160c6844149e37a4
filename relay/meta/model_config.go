package meta

import (
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
)

// ModelConfig is the deployment identity of a model. Instances come from the static catalog
// and are never mutated after load.
type ModelConfig struct {
	// Type selects the invocation transport.
	Type channeltype.ModelType `json:"model_type"`
	// ModelID is the vendor model identifier, e.g. "anthropic.claude-v2" or "gpt-4o".
	ModelID string `json:"model_id"`
	// Family names the Bedrock payload family ("titan", "claude", "cohere", "llama"). Empty
	// resolves it from the ModelID prefix.
	Family string `json:"family,omitempty"`
	// APIKeySecret names the secret holding the API key. OpenAI only.
	APIKeySecret string `json:"api_key_secret,omitempty"`
	// URL overrides the vendor endpoint. OpenAI only.
	URL string `json:"url,omitempty"`
	// EndpointName is the SageMaker endpoint. Reserved until SageMaker is supported.
	EndpointName string `json:"endpoint_name,omitempty"`
}

package channeltype

import "strings"

// ModelType identifies the transport used to reach a model.
type ModelType string

const (
	// Bedrock models are invoked through the managed InvokeModel API.
	Bedrock ModelType = "bedrock"
	// OpenAI models are reached over HTTP with an API key held in the secret store.
	OpenAI ModelType = "openai"
	// SageMaker endpoints are declared but not implemented yet.
	SageMaker ModelType = "sagemaker"
)

// Parse trims and normalizes a configured model type. Unknown values are returned as-is
// so dispatch can report them.
func Parse(raw string) ModelType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "bedrock", "aws", "aws-bedrock", "aws_bedrock":
		return Bedrock
	case "openai", "chatgpt":
		return OpenAI
	case "sagemaker", "sage_maker":
		return SageMaker
	default:
		return ModelType(normalized)
	}
}

// IsKnown reports whether t is one of the declared model types.
func (t ModelType) IsKnown() bool {
	switch t {
	case Bedrock, OpenAI, SageMaker:
		return true
	default:
		return false
	}
}

func (t ModelType) String() string {
	return string(t)
}

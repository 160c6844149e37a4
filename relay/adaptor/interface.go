package adaptor

import (
	"context"
)

// Runner sends one prompt to a model and returns the generated text. LogProb is nil for vendors
// that do not report log-probabilities.
type Runner interface {
	Predict(ctx context.Context, prompt string) (text string, logProb *float64, err error)
	// ModelID identifies the model behind this runner, for logs and metrics.
	ModelID() string
}

// InferenceConfig is a family-specific set of generation hyperparameters. Implementations are
// plain structs marshaled into the vendor payload; ConfigID and the messages flag are control
// fields and never reach the vendor.
type InferenceConfig interface {
	// ConfigID is the opaque identifier of this configuration instance.
	ConfigID() string
	// MessagesAPI reports whether the vendor's structured "messages" convention applies.
	MessagesAPI() bool
}

// BaseConfig carries the control fields shared by every inference config.
type BaseConfig struct {
	ID string `json:"config_id" validate:"required"`
}

func (b BaseConfig) ConfigID() string { return b.ID }

// MessagesAPI is false unless a config overrides it.
func (b BaseConfig) MessagesAPI() bool { return false }

// ControlFields are JSON keys that describe a config rather than generation behavior.
var ControlFields = []string{"config_id", "messages_api"}

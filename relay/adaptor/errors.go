package adaptor

import (
	"fmt"

	"github.com/songquanpeng/prompt-studio/common/helper"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
)

// UnknownModelTypeError is returned when a model config names no known transport.
type UnknownModelTypeError struct {
	Type channeltype.ModelType
}

func (e *UnknownModelTypeError) Error() string {
	return fmt.Sprintf("unknown model type %q", string(e.Type))
}

// NotImplementedError is returned for declared model types without a runner.
type NotImplementedError struct {
	Type    channeltype.ModelType
	ModelID string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("model type %q is not implemented yet (model %s)", string(e.Type), e.ModelID)
}

// VendorInvocationError wraps a network, status or parse failure from a vendor call.
type VendorInvocationError struct {
	ModelID string
	// StatusCode is the upstream HTTP status, 0 when the call never got a response.
	StatusCode int
	// Body is a bounded snippet of the upstream response, if any.
	Body string
	Err  error
}

func (e *VendorInvocationError) Error() string {
	msg := fmt.Sprintf("invoke model %s", e.ModelID)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + helper.Snippet([]byte(e.Body), 200)
	}
	return msg
}

func (e *VendorInvocationError) Unwrap() error { return e.Err }

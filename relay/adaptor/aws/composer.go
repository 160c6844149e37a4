package aws

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/songquanpeng/prompt-studio/relay/adaptor"
)

// Request is a composed payload template for one model and inference config. It is immutable
// and safe to render concurrently.
type Request struct {
	ModelID string
	Family  Family
	// Template is the JSON body with a null placeholder at PromptKey.
	Template   []byte
	PromptKey  string
	OutputPath string
	// Structured means the prompt is pre-serialized JSON embedded as a raw value.
	Structured bool
}

// Compose builds the payload template for modelID with the hyperparameters of inf. Control
// fields (config_id, messages_api) are dropped from the payload.
func Compose(modelID string, inf adaptor.InferenceConfig) (*Request, error) {
	family, err := ResolveFamily(modelID)
	if err != nil {
		return nil, err
	}
	return ComposeFamily(family, modelID, inf)
}

// ComposeFamily is Compose with the family already known.
func ComposeFamily(family Family, modelID string, inf adaptor.InferenceConfig) (*Request, error) {
	if inf == nil {
		return nil, errors.New("inference config is nil")
	}
	spec, ok := families[family]
	if !ok {
		return nil, &UnsupportedModelError{ModelID: modelID}
	}

	params, err := json.Marshal(inf)
	if err != nil {
		return nil, errors.Wrap(err, "marshal inference config")
	}
	for _, field := range adaptor.ControlFields {
		if params, err = sjson.DeleteBytes(params, field); err != nil {
			return nil, errors.Wrapf(err, "drop %s", field)
		}
	}

	req := &Request{
		ModelID:    modelID,
		Family:     family,
		PromptKey:  spec.promptKey,
		OutputPath: spec.outputPath,
	}
	if inf.MessagesAPI() {
		if !family.SupportsMessages() {
			return nil, errors.Errorf("model %s (%s) has no messages calling convention", modelID, family)
		}
		req.Structured = true
		req.PromptKey = spec.messagesKey
		req.OutputPath = spec.messagesOutputPath
	}

	body, err := sjson.SetRawBytes([]byte(`{}`), req.PromptKey, []byte("null"))
	if err != nil {
		return nil, errors.Wrap(err, "set prompt placeholder")
	}
	if spec.paramsKey != "" {
		body, err = sjson.SetRawBytes(body, spec.paramsKey, params)
		if err != nil {
			return nil, errors.Wrapf(err, "nest params under %s", spec.paramsKey)
		}
	} else {
		gjson.ParseBytes(params).ForEach(func(key, value gjson.Result) bool {
			body, err = sjson.SetRawBytes(body, key.String(), []byte(value.Raw))
			return err == nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "merge params")
		}
	}

	req.Template = body
	return req, nil
}

// Render substitutes prompt into the template. A structured prompt must already be valid JSON
// and is embedded without re-encoding.
func (r *Request) Render(prompt string) ([]byte, error) {
	if r.Structured {
		if !json.Valid([]byte(prompt)) {
			return nil, errors.Errorf("structured prompt for %s is not valid JSON", r.ModelID)
		}
		body, err := sjson.SetRawBytes(r.Template, r.PromptKey, []byte(prompt))
		if err != nil {
			return nil, errors.Wrap(err, "embed structured prompt")
		}
		return body, nil
	}

	body, err := sjson.SetBytes(r.Template, r.PromptKey, prompt)
	if err != nil {
		return nil, errors.Wrap(err, "embed prompt")
	}
	return body, nil
}

// Package aws composes Bedrock InvokeModel payloads for the supported vendor families and runs
// prompts against them.
package aws

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Laisky/errors/v2"
)

// Family is a group of Bedrock models sharing one request/response JSON shape.
type Family int

const (
	FamilyTitan Family = iota + 1
	FamilyClaude
	FamilyCohere
	FamilyLlama
)

// familySpec describes a family's payload shape as data.
type familySpec struct {
	name   string
	prefix string
	// promptKey receives the prompt string.
	promptKey string
	// paramsKey nests the hyperparameters under one key. Empty merges them top-level.
	paramsKey  string
	outputPath string
	// messagesKey and messagesOutputPath apply when the structured messages convention is used.
	// Empty for families without one.
	messagesKey        string
	messagesOutputPath string
}

var families = map[Family]familySpec{
	FamilyTitan: {
		name:       "titan",
		prefix:     "amazon.titan-t",
		promptKey:  "inputText",
		paramsKey:  "textGenerationConfig",
		outputPath: "results[0].outputText",
	},
	FamilyClaude: {
		name:               "claude",
		prefix:             "anthropic.claude-",
		promptKey:          "prompt",
		outputPath:         "completion",
		messagesKey:        "messages",
		messagesOutputPath: "content[0].text",
	},
	FamilyCohere: {
		name:       "cohere",
		prefix:     "cohere.command",
		promptKey:  "prompt",
		outputPath: "generations[0].text",
	},
	FamilyLlama: {
		name:       "llama",
		prefix:     "meta.llama",
		promptKey:  "prompt",
		outputPath: "generation",
	},
}

// resolveOrder keeps prefix matching deterministic.
var resolveOrder = []Family{FamilyTitan, FamilyClaude, FamilyCohere, FamilyLlama}

// crossRegionPrefix matches inference profile ids such as "us.anthropic.claude-3-haiku-...".
var crossRegionPrefix = regexp.MustCompile(`^(us|eu|apac|us-gov)\.`)

// UnsupportedModelError is returned for Bedrock model ids outside every known family.
type UnsupportedModelError struct {
	ModelID string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("model %s not yet supported", e.ModelID)
}

// ResolveFamily matches modelID against the family prefixes.
func ResolveFamily(modelID string) (Family, error) {
	base := crossRegionPrefix.ReplaceAllString(strings.TrimSpace(modelID), "")
	for _, f := range resolveOrder {
		if strings.HasPrefix(base, families[f].prefix) {
			return f, nil
		}
	}
	return 0, &UnsupportedModelError{ModelID: modelID}
}

// ParseFamily looks a family up by name, e.g. "claude".
func ParseFamily(name string) (Family, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range resolveOrder {
		if families[f].name == name {
			return f, nil
		}
	}
	return 0, errors.Errorf("unknown bedrock family %q", name)
}

// FamilyFor returns the named family when name is set and resolves it from modelID otherwise.
// Provisioned throughput ARNs carry no vendor prefix and need the name.
func FamilyFor(name, modelID string) (Family, error) {
	if strings.TrimSpace(name) != "" {
		return ParseFamily(name)
	}
	return ResolveFamily(modelID)
}

func (f Family) String() string {
	if spec, ok := families[f]; ok {
		return spec.name
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// SupportsMessages reports whether the family has a structured messages convention.
func (f Family) SupportsMessages() bool {
	return families[f].messagesKey != ""
}

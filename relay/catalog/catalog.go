// Package catalog declares which models the app offers and which inference configs may be used
// with each. Dispatch only ever receives pairings obtained from a Catalog.
package catalog

import (
	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

var (
	ErrModelNotFound  = errors.New("model not in catalog")
	ErrConfigNotFound = errors.New("inference config not available for model")
	ErrNoConfigs      = errors.New("model has no inference configs")
)

// Entry pairs a model deployment with the inference configs it accepts.
type Entry struct {
	Model   meta.ModelConfig
	Configs []adaptor.InferenceConfig
	// Family is resolved at load for Bedrock models. A non-zero value set by the caller overrides
	// the model id prefix.
	Family aws.Family
}

// Catalog is immutable after New.
type Catalog struct {
	entries []Entry
	byID    map[string]int
}

// New validates every entry and pairing. Bedrock model ids must resolve to a family and compose
// with each of their configs; every config must pass its validation tags.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(entries))}
	for i, e := range entries {
		if e.Model.ModelID == "" {
			return nil, errors.Errorf("catalog entry %d has no model id", i)
		}
		if _, dup := c.byID[e.Model.ModelID]; dup {
			return nil, errors.Errorf("duplicate catalog model %s", e.Model.ModelID)
		}
		if !e.Model.Type.IsKnown() {
			return nil, &adaptor.UnknownModelTypeError{Type: e.Model.Type}
		}

		for _, cfg := range e.Configs {
			if err := adaptor.Validate(cfg); err != nil {
				return nil, errors.Wrapf(err, "model %s", e.Model.ModelID)
			}
		}

		if e.Model.Type == channeltype.Bedrock {
			name := e.Model.Family
			if e.Family != 0 {
				name = e.Family.String()
			}
			family, err := aws.FamilyFor(name, e.Model.ModelID)
			if err != nil && len(e.Configs) > 0 {
				return nil, err
			}
			e.Family = family
			if family != 0 {
				e.Model.Family = family.String()
			}
			for _, cfg := range e.Configs {
				if _, err := aws.ComposeFamily(family, e.Model.ModelID, cfg); err != nil {
					return nil, errors.Wrapf(err, "pair %s with config %s", e.Model.ModelID, cfg.ConfigID())
				}
			}
		}

		c.byID[e.Model.ModelID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Entries returns every entry in declaration order, including models without configs.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Available returns entries with at least one inference config, in declaration order.
func (c *Catalog) Available() []Entry {
	var out []Entry
	for _, e := range c.entries {
		if len(e.Configs) > 0 {
			out = append(out, e)
		}
	}
	return out
}

// ListModelIDs lists models with at least one inference config.
func (c *Catalog) ListModelIDs() []string {
	var ids []string
	for _, e := range c.Available() {
		ids = append(ids, e.Model.ModelID)
	}
	return ids
}

// Lookup returns the catalog pairing for modelID and configID. An empty configID selects the
// model's first config.
func (c *Catalog) Lookup(modelID, configID string) (meta.ModelConfig, adaptor.InferenceConfig, error) {
	i, ok := c.byID[modelID]
	if !ok {
		return meta.ModelConfig{}, nil, errors.Wrap(ErrModelNotFound, modelID)
	}
	e := c.entries[i]
	if len(e.Configs) == 0 {
		return meta.ModelConfig{}, nil, errors.Wrap(ErrNoConfigs, modelID)
	}
	if configID == "" {
		return e.Model, e.Configs[0], nil
	}
	for _, cfg := range e.Configs {
		if cfg.ConfigID() == configID {
			return e.Model, cfg, nil
		}
	}
	return meta.ModelConfig{}, nil, errors.Wrapf(ErrConfigNotFound, "%s for %s", configID, modelID)
}

// Judge returns the pairing used to grade answers: the first available entry.
func (c *Catalog) Judge() (meta.ModelConfig, adaptor.InferenceConfig, error) {
	avail := c.Available()
	if len(avail) == 0 {
		return meta.ModelConfig{}, nil, errors.New("catalog has no usable models")
	}
	return avail[0].Model, avail[0].Configs[0], nil
}

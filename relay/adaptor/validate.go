package adaptor

import (
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the struct tags of an inference config.
func Validate(cfg InferenceConfig) error {
	if cfg == nil {
		return errors.New("inference config is nil")
	}
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrapf(err, "invalid inference config %s", cfg.ConfigID())
	}
	return nil
}

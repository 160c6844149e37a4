package monitor

import (
	"context"

	"github.com/Laisky/errors/v2"
)

// Outcome classifies err for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

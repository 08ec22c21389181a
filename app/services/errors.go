package services

import (
	"errors"

	"github.com/ManuelReschke/PixelForum/internal/pkg/metrics"
)

// Error classes of the comment service. Returned errors wrap exactly one of
// them and can be tested with errors.Is.
var (
	ErrValidation = errors.New("comment content must not be empty")
	ErrNotFound   = errors.New("not found")
	ErrPermission = errors.New("permission denied")
	ErrStore      = errors.New("store failure")
)

// outcomeOf maps an error to its metrics outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrPermission):
		return metrics.OutcomePermission
	default:
		return metrics.OutcomeStoreError
	}
}

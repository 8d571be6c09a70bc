package notifications

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the on-demand send path. Event-triggered paths
// treat the same conditions as skip-and-log instead.
var (
	// ErrNotFound marks a referenced user or record that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoDeliveryToken marks a recipient without a registered token,
	// who is therefore topic-only reachable.
	ErrNoDeliveryToken = errors.New("recipient has no delivery token")

	// ErrDeliveryFailed wraps a gateway send failure.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// ValidationError reports a missing or empty required field on the
// on-demand send entry point.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

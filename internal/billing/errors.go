package billing

import "errors"

// Domain errors returned by engine operations. Callers are expected to map
// these to user-facing failures with errors.Is; store failures are wrapped
// and propagated unwrapped of any retry logic.
var (
	// ErrValidation marks a rejected input shape or range.
	ErrValidation = errors.New("billing: validation failed")
	// ErrInvalidTransition marks an illegal lifecycle move.
	ErrInvalidTransition = errors.New("billing: invalid status transition")
	// ErrInvalidFrequency marks an unrecognized billing cadence.
	ErrInvalidFrequency = errors.New("billing: invalid billing frequency")
	// ErrPaymentLocked marks a write against a paid and invoiced payment.
	ErrPaymentLocked = errors.New("billing: payment is locked")
	// ErrSubscriptionNotFound marks a missing subscription row.
	ErrSubscriptionNotFound = errors.New("billing: subscription not found")
	// ErrPaymentNotFound marks a missing payment row.
	ErrPaymentNotFound = errors.New("billing: payment not found")
)

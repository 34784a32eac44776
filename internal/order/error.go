package order

import (
	"errors"
	"fmt"
)

var (
	// -- Authentication/Authorization --
	ErrUnauthorized = errors.New("unauthorized")

	// -- Validation & Input --
	ErrCancellationReasonRequired = errors.New("cancellation reason is required")
	ErrUnknownStatus              = errors.New("unknown order status")
	ErrUnknownPaymentStatus       = errors.New("unknown payment status")
	ErrNothingToUpdate            = errors.New("no fields to update")

	// -- Resource State --
	ErrOrderNotFound = errors.New("order not found")
)

// InvalidTransitionError names the current and attempted state so the
// caller knows exactly which move was illegal.
type InvalidTransitionError struct {
	Axis   string // "status" or "payment_status"
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid %s transition from %s to %s", e.Axis, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// AsInvalidTransition unwraps err into an InvalidTransitionError when possible.
func AsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var ite *InvalidTransitionError
	if errors.As(err, &ite) {
		return ite, true
	}
	return nil, false
}

package order

import "time"

// Effect is a side-effect command returned by a transition. The caller
// must execute every effect inside the same transaction that persists
// the transition, so the status change and its consequences commit or
// roll back together.
type Effect int

const (
	// EffectRestock returns the order's reserved stock to the catalog.
	EffectRestock Effect = iota + 1
)

// statusTransitions is the single source of truth for the fulfillment
// axis. DELIVERED and CANCELLED are terminal: they have no entries, so
// repeated cancels (and the double-restock they would cause) are
// rejected by the table itself.
var statusTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed:  true,
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusConfirmed: {
		StatusProcessing: true,
		StatusShipped:    true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
}

// paymentTransitions: PENDING is the only state with a way out.
var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {
		PaymentPaid:    true,
		PaymentFailed:  true,
		PaymentExpired: true,
	},
}

func CanTransition(from, to Status) bool {
	return statusTransitions[from][to]
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return paymentTransitions[from][to]
}

// Transition validates and applies a fulfillment-status change on o,
// stamping the matching timestamp and returning the side effects the
// caller must execute in the same transaction.
func Transition(o *Order, target Status, now time.Time) ([]Effect, error) {
	if !CanTransition(o.Status, target) {
		return nil, &InvalidTransitionError{
			Axis: "status",
			From: string(o.Status),
			To:   string(target),
		}
	}

	// Processing an order requires settled money unless it is paid on
	// delivery.
	if target == StatusProcessing && o.PaymentStatus != PaymentPaid && o.PaymentMethod != MethodCOD {
		return nil, &InvalidTransitionError{
			Axis:   "status",
			From:   string(o.Status),
			To:     string(target),
			Reason: "payment not completed",
		}
	}

	var effects []Effect

	switch target {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
		effects = append(effects, EffectRestock)
	}

	o.Status = target
	return effects, nil
}

// TransitionPayment validates and applies a payment-status change.
func TransitionPayment(o *Order, target PaymentStatus, now time.Time) error {
	if !CanTransitionPayment(o.PaymentStatus, target) {
		return &InvalidTransitionError{
			Axis: "payment_status",
			From: string(o.PaymentStatus),
			To:   string(target),
		}
	}

	if target == PaymentPaid {
		o.PaidAt = &now
	}

	o.PaymentStatus = target
	return nil
}

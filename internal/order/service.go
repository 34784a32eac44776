package order

import (
	"context"
	"errors"
	"time"

	"mebelin-be/internal/logger"
	"mebelin-be/internal/product"

	"go.uber.org/zap"
)

// AdminUpdate is the partial update accepted by the admin transition
// endpoint. Every present field is validated against the state machine
// before any field is applied.
type AdminUpdate struct {
	Status             *Status
	PaymentStatus      *PaymentStatus
	TrackingNumber     *string
	CancellationReason *string
	AdminNotes         *string
}

func (u AdminUpdate) empty() bool {
	return u.Status == nil &&
		u.PaymentStatus == nil &&
		u.TrackingNumber == nil &&
		u.CancellationReason == nil &&
		u.AdminNotes == nil
}

type Service interface {
	GetOrder(ctx context.Context, orderID uint, userID *uint, isAdmin bool) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)

	ConfirmPayment(ctx context.Context, orderID uint) (*Order, error)
	Ship(ctx context.Context, orderID uint, trackingNumber *string) (*Order, error)
	Deliver(ctx context.Context, orderID uint) (*Order, error)
	Cancel(ctx context.Context, orderID uint, reason string) (*Order, error)
	ApplyAdminUpdate(ctx context.Context, orderID uint, update AdminUpdate) (*Order, error)

	ExpireStalePayments(ctx context.Context, cutoff time.Time) (int, error)
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

func (s *service) GetOrder(ctx context.Context, orderID uint, userID *uint, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if userID == nil || o.UserID == nil || *o.UserID != *userID {
			return nil, ErrUnauthorized
		}
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	return s.repo.ListOrders(ctx, filter)
}

// transition loads the order under a row lock, applies fn, executes the
// returned side effects, and persists the result — all in one
// transaction, so a failed restock unwinds the status change too.
func (s *service) transition(ctx context.Context, orderID uint, fn func(o *Order, now time.Time) ([]Effect, error)) (*Order, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := s.repo.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	effects, err := fn(o, time.Now())
	if err != nil {
		return nil, err
	}

	for _, effect := range effects {
		switch effect {
		case EffectRestock:
			items, err := s.repo.GetReservationItems(ctx, tx, o.ID)
			if err != nil {
				return nil, err
			}
			if err := s.productRepo.Restock(ctx, tx, items); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.SaveTransition(ctx, tx, o); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return o, nil
}

func (s *service) ConfirmPayment(ctx context.Context, orderID uint) (*Order, error) {
	o, err := s.transition(ctx, orderID, func(o *Order, now time.Time) ([]Effect, error) {
		return nil, TransitionPayment(o, PaymentPaid, now)
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("payment confirmed",
		zap.Uint("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
	)

	return o, nil
}

func (s *service) Ship(ctx context.Context, orderID uint, trackingNumber *string) (*Order, error) {
	return s.transition(ctx, orderID, func(o *Order, now time.Time) ([]Effect, error) {
		effects, err := Transition(o, StatusShipped, now)
		if err != nil {
			return nil, err
		}
		if trackingNumber != nil {
			o.TrackingNumber = trackingNumber
		}
		return effects, nil
	})
}

func (s *service) Deliver(ctx context.Context, orderID uint) (*Order, error) {
	return s.transition(ctx, orderID, func(o *Order, now time.Time) ([]Effect, error) {
		return Transition(o, StatusDelivered, now)
	})
}

func (s *service) Cancel(ctx context.Context, orderID uint, reason string) (*Order, error) {
	if reason == "" {
		return nil, ErrCancellationReasonRequired
	}

	o, err := s.transition(ctx, orderID, func(o *Order, now time.Time) ([]Effect, error) {
		effects, err := Transition(o, StatusCancelled, now)
		if err != nil {
			return nil, err
		}
		o.CancellationReason = &reason
		return effects, nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order cancelled",
		zap.Uint("order_id", o.ID),
		zap.String("reason", reason),
	)

	return o, nil
}

// ApplyAdminUpdate applies a partial update. Both axes are validated on
// the locked row before anything is written; the payment change is
// applied first so an update that both confirms payment and moves to
// PROCESSING is legal in one call.
func (s *service) ApplyAdminUpdate(ctx context.Context, orderID uint, update AdminUpdate) (*Order, error) {
	if update.empty() {
		return nil, ErrNothingToUpdate
	}

	if update.Status != nil && !ValidStatus(*update.Status) {
		return nil, ErrUnknownStatus
	}
	if update.PaymentStatus != nil && !ValidPaymentStatus(*update.PaymentStatus) {
		return nil, ErrUnknownPaymentStatus
	}
	if update.Status != nil && *update.Status == StatusCancelled &&
		(update.CancellationReason == nil || *update.CancellationReason == "") {
		return nil, ErrCancellationReasonRequired
	}

	return s.transition(ctx, orderID, func(o *Order, now time.Time) ([]Effect, error) {
		if update.PaymentStatus != nil {
			if err := TransitionPayment(o, *update.PaymentStatus, now); err != nil {
				return nil, err
			}
		}

		var effects []Effect
		if update.Status != nil {
			var err error
			effects, err = Transition(o, *update.Status, now)
			if err != nil {
				return nil, err
			}
			if *update.Status == StatusCancelled {
				o.CancellationReason = update.CancellationReason
			}
		}

		if update.TrackingNumber != nil {
			o.TrackingNumber = update.TrackingNumber
		}
		if update.AdminNotes != nil {
			o.AdminNotes = update.AdminNotes
		}

		return effects, nil
	})
}

// errCODNotExpirable marks a COD order the sweeper must leave alone:
// its payment stays PENDING until delivery confirms it.
var errCODNotExpirable = errors.New("cod orders do not expire")

// ExpireStalePayments moves orders whose payment sat PENDING past the
// cutoff to EXPIRED and cancels the ones that never started
// fulfillment, restocking their items. Each order is its own
// transaction so one bad row does not block the sweep.
func (s *service) ExpireStalePayments(ctx context.Context, cutoff time.Time) (int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ExpireStalePayments"),
	)

	ids, err := s.repo.ListStalePendingPayments(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reason := "payment expired"
	expired := 0

	for _, id := range ids {
		_, err := s.transition(ctx, id, func(o *Order, now time.Time) ([]Effect, error) {
			// The list query already filters COD; this guards against a
			// candidate slipping in regardless.
			if o.PaymentMethod == MethodCOD {
				return nil, errCODNotExpirable
			}

			// Re-check under lock; a payment may have landed since the list query.
			if err := TransitionPayment(o, PaymentExpired, now); err != nil {
				return nil, err
			}

			if o.Status == StatusPending || o.Status == StatusConfirmed {
				effects, err := Transition(o, StatusCancelled, now)
				if err != nil {
					return nil, err
				}
				o.CancellationReason = &reason
				return effects, nil
			}

			return nil, nil
		})
		if err != nil {
			if errors.Is(err, errCODNotExpirable) {
				continue
			}
			if _, ok := AsInvalidTransition(err); ok {
				continue
			}
			log.Error("failed to expire order payment",
				zap.Uint("order_id", id),
				zap.Error(err),
			)
			continue
		}

		expired++
	}

	if expired > 0 {
		log.Info("stale pending payments expired", zap.Int("count", expired))
	}

	return expired, nil
}

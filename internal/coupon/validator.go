package coupon

import (
	"context"
	"database/sql"
	"time"

	"mebelin-be/internal/logger"

	"go.uber.org/zap"
)

// Validator resolves a coupon code into a discount amount. Absent,
// inactive, expired or otherwise inapplicable codes yield zero, never
// an error that would block checkout.
type Validator interface {
	Validate(ctx context.Context, code string, subtotal int64) (int64, error)

	// Redeem validates like Validate and, when the coupon applies,
	// bumps its usage counter inside the caller's transaction.
	Redeem(ctx context.Context, tx *sql.Tx, code string, subtotal int64) (int64, error)
}

type validator struct {
	repo Repository
}

func NewValidator(repo Repository) Validator {
	return &validator{repo: repo}
}

func (v *validator) Validate(ctx context.Context, code string, subtotal int64) (int64, error) {
	_, discount, err := v.resolve(ctx, code, subtotal)
	return discount, err
}

func (v *validator) Redeem(ctx context.Context, tx *sql.Tx, code string, subtotal int64) (int64, error) {
	c, discount, err := v.resolve(ctx, code, subtotal)
	if err != nil {
		return 0, err
	}
	if discount == 0 {
		return 0, nil
	}

	if err := v.repo.IncrementUsage(ctx, tx, c.ID); err != nil {
		return 0, err
	}
	return discount, nil
}

func (v *validator) resolve(ctx context.Context, code string, subtotal int64) (*Coupon, int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ValidateCoupon"),
		zap.String("code", code),
	)

	c, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}

	if c == nil || !c.Active {
		log.Debug("coupon absent or inactive")
		return nil, 0, nil
	}

	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		log.Debug("coupon expired")
		return nil, 0, nil
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		log.Debug("coupon usage limit reached")
		return nil, 0, nil
	}

	if subtotal < c.MinSubtotal {
		log.Debug("subtotal below coupon minimum",
			zap.Int64("subtotal", subtotal),
			zap.Int64("min_subtotal", c.MinSubtotal),
		)
		return nil, 0, nil
	}

	var discount int64
	switch c.Kind {
	case KindPercent:
		pct := c.Value
		if pct > 100 {
			pct = 100
		}
		discount = subtotal * pct / 100
	case KindFixed:
		discount = c.Value
	default:
		return nil, 0, nil
	}

	if discount > subtotal {
		discount = subtotal
	}

	log.Info("coupon applied", zap.Int64("discount", discount))
	return c, discount, nil
}

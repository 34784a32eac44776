package order

import (
	"context"
	"time"

	"mebelin-be/internal/logger"

	"go.uber.org/zap"
)

type paymentExpirer interface {
	ExpireStalePayments(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper periodically expires orders whose payment was never
// completed. Run it from main; it stops when the context is cancelled.
type Sweeper struct {
	service  paymentExpirer
	interval time.Duration
	deadline time.Duration
}

func NewSweeper(service paymentExpirer, interval, deadline time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		deadline: deadline,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	log := logger.FromCtx(ctx).With(zap.String("component", "payment_sweeper"))
	log.Info("sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("deadline", s.deadline),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.deadline)

	count, err := s.service.ExpireStalePayments(ctx, cutoff)
	if err != nil {
		logger.FromCtx(ctx).Error("payment sweep failed", zap.Error(err))
		return
	}

	if count > 0 {
		logger.FromCtx(ctx).Info("payment sweep done", zap.Int("expired", count))
	}
}

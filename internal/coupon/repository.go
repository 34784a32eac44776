package coupon

import (
	"context"
	"database/sql"
	"errors"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementUsage(ctx context.Context, tx *sql.Tx, couponID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
	SELECT id, code, kind, value, min_subtotal, usage_limit, used_count, active, expires_at, created_at
	FROM coupons
	WHERE code = $1
	`

	var c Coupon
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.ID,
		&c.Code,
		&c.Kind,
		&c.Value,
		&c.MinSubtotal,
		&c.UsageLimit,
		&c.UsedCount,
		&c.Active,
		&c.ExpiresAt,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) IncrementUsage(ctx context.Context, tx *sql.Tx, couponID uint) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1
	`, couponID)
	return err
}

package product

import (
	"context"
	"database/sql"

	"mebelin-be/internal/logger"

	"go.uber.org/zap"
)

// reserveQuery is a conditional decrement: the WHERE clause refuses the
// update when tracked, non-backorder stock is insufficient, so two
// concurrent reservations against the same row cannot both succeed past
// the remaining quantity.
const reserveQuery = `
	UPDATE products
	SET stock_quantity = CASE
			WHEN track_stock THEN GREATEST(stock_quantity - $1, 0)
			ELSE stock_quantity
		END,
		sold_count = sold_count + $1,
		updated_at = NOW()
	WHERE id = $2
	  AND deleted_at IS NULL
	  AND (NOT track_stock OR allow_backorder OR stock_quantity >= $1)
`

const restockQuery = `
	UPDATE products
	SET stock_quantity = CASE
			WHEN track_stock THEN stock_quantity + $1
			ELSE stock_quantity
		END,
		sold_count = GREATEST(sold_count - $1, 0),
		updated_at = NOW()
	WHERE id = $2
`

// ReserveForOrder decrements stock and bumps sold_count for every item,
// all-or-nothing: the first product with insufficient stock aborts with
// an OutOfStockError and the caller is expected to roll back tx.
func (r *repository) ReserveForOrder(ctx context.Context, tx *sql.Tx, items []ReservationItem) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ReserveForOrder"),
		zap.Int("item_count", len(items)),
	)

	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}

		res, err := tx.ExecContext(ctx, reserveQuery, item.Quantity, item.ProductID)
		if err != nil {
			log.Error("stock reservation failed",
				zap.Uint("product_id", item.ProductID),
				zap.Error(err),
			)
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if affected == 0 {
			return r.reservationFailure(ctx, tx, item)
		}
	}

	log.Debug("stock reserved")
	return nil
}

// reservationFailure distinguishes a missing product from insufficient
// stock and names the offending product either way.
func (r *repository) reservationFailure(ctx context.Context, tx *sql.Tx, item ReservationItem) error {
	var name string
	var available int

	err := tx.QueryRowContext(ctx, `
		SELECT name, stock_quantity
		FROM products
		WHERE id = $1 AND deleted_at IS NULL
	`, item.ProductID).Scan(&name, &available)

	if err == sql.ErrNoRows {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}

	return &OutOfStockError{
		ProductID:   item.ProductID,
		ProductName: name,
		Available:   available,
		Requested:   item.Quantity,
	}
}

// Restock reverses a previous reservation. sold_count is floored at
// zero so repeated restocks of legacy rows cannot underflow it.
func (r *repository) Restock(ctx context.Context, tx *sql.Tx, items []ReservationItem) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Restock"),
		zap.Int("item_count", len(items)),
	)

	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}

		if _, err := tx.ExecContext(ctx, restockQuery, item.Quantity, item.ProductID); err != nil {
			log.Error("restock failed",
				zap.Uint("product_id", item.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	log.Debug("stock restored")
	return nil
}

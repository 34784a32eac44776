package cart

import (
	"context"
	"database/sql"
	"errors"

	"mebelin-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MergeGuestIntoUser folds the guest cart identified by sessionID into
// the user's cart inside one transaction. Absent guest cart is a no-op,
// so the login flow may call this repeatedly. Locks are always taken
// guest cart first, then user cart.
func (r *repository) MergeGuestIntoUser(ctx context.Context, userID uint, sessionID uuid.UUID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "MergeGuestIntoUser"),
		zap.Uint("user_id", userID),
		zap.String("session_id", sessionID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback merge transaction", zap.Error(rbErr))
			}
		}
	}()

	// 1. Lock the guest cart. No row means nothing to merge.
	var guestCartID uint
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE session_id = $1 FOR UPDATE
	`, sessionID).Scan(&guestCartID)

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no guest cart to merge")
		return nil
	}
	if err != nil {
		return err
	}

	// 2. Lock the user cart. If absent, adopt the guest cart wholesale.
	var userCartID uint
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&userCartID)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx, `
			UPDATE carts
			SET user_id = $1, session_id = NULL, updated_at = NOW()
			WHERE id = $2
		`, userID, guestCartID)
		if err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true

		log.Info("guest cart adopted by user", zap.Uint("cart_id", guestCartID))
		return nil
	}
	if err != nil {
		return err
	}

	// 3. Sum quantities for products present in both carts.
	_, err = tx.ExecContext(ctx, `
		UPDATE cart_items AS ui
		SET quantity = ui.quantity + gi.quantity, updated_at = NOW()
		FROM cart_items AS gi
		WHERE ui.cart_id = $1
		  AND gi.cart_id = $2
		  AND ui.product_id = gi.product_id
	`, userCartID, guestCartID)
	if err != nil {
		return err
	}

	// 4. Move guest-only rows across.
	_, err = tx.ExecContext(ctx, `
		UPDATE cart_items
		SET cart_id = $1, updated_at = NOW()
		WHERE cart_id = $2
		  AND product_id NOT IN (
			SELECT product_id FROM cart_items WHERE cart_id = $1
		  )
	`, userCartID, guestCartID)
	if err != nil {
		return err
	}

	// 5. Guarded products with no stock left are dropped outright; a
	// clamp to zero would violate the positive-quantity check on
	// cart_items and abort the merge.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items AS ci
		USING products AS p
		WHERE ci.cart_id = $1
		  AND p.id = ci.product_id
		  AND p.track_stock
		  AND NOT p.allow_backorder
		  AND p.stock_quantity <= 0
	`, userCartID)
	if err != nil {
		return err
	}

	// 6. Clamp the remaining merged quantities to available stock.
	_, err = tx.ExecContext(ctx, `
		UPDATE cart_items AS ci
		SET quantity = LEAST(ci.quantity, p.stock_quantity), updated_at = NOW()
		FROM products AS p
		WHERE ci.cart_id = $1
		  AND p.id = ci.product_id
		  AND p.track_stock
		  AND NOT p.allow_backorder
		  AND ci.quantity > p.stock_quantity
	`, userCartID)
	if err != nil {
		return err
	}

	// 7. Drop whatever is left of the guest cart.
	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, guestCartID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, guestCartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	log.Info("guest cart merged",
		zap.Uint("guest_cart_id", guestCartID),
		zap.Uint("user_cart_id", userCartID),
	)

	return nil
}

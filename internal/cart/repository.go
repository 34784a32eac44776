package cart

import (
	"context"
	"database/sql"
	"errors"

	"mebelin-be/internal/logger"
	"mebelin-be/internal/product"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	FindCart(ctx context.Context, actor Actor) (*Cart, error)
	CreateCart(ctx context.Context, actor Actor) (*Cart, error)
	GetItems(ctx context.Context, cartID uint) ([]CartItem, error)
	GetItem(ctx context.Context, cartID, productID uint) (*CartItem, error)
	InsertItem(ctx context.Context, params CreateItemParams) (*CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uint) error
	Clear(ctx context.Context, cartID uint) error
	SetCoupon(ctx context.Context, cartID uint, code *string, discount int64) error
	MergeGuestIntoUser(ctx context.Context, userID uint, sessionID uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// ownerClause maps the actor union onto the owning column. Exactly one
// of user_id/session_id is set per cart row.
func ownerClause(actor Actor) (string, any) {
	switch a := actor.(type) {
	case User:
		return "user_id = $1", a.ID
	case Guest:
		return "session_id = $1", a.SessionID
	default:
		return "", nil
	}
}

func (r *repository) FindCart(ctx context.Context, actor Actor) (*Cart, error) {
	clause, arg := ownerClause(actor)
	if clause == "" {
		return nil, ErrInvalidActor
	}

	query := `
	SELECT id, user_id, session_id, coupon_code, discount_amount, created_at, updated_at
	FROM carts
	WHERE ` + clause

	var c Cart
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID,
		&c.UserID,
		&c.SessionID,
		&c.CouponCode,
		&c.DiscountAmount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) CreateCart(ctx context.Context, actor Actor) (*Cart, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateCart"),
	)

	var query string
	var arg any

	switch a := actor.(type) {
	case User:
		query = `
		INSERT INTO carts (user_id)
		VALUES ($1)
		RETURNING id, user_id, session_id, coupon_code, discount_amount, created_at, updated_at`
		arg = a.ID
	case Guest:
		query = `
		INSERT INTO carts (session_id)
		VALUES ($1)
		RETURNING id, user_id, session_id, coupon_code, discount_amount, created_at, updated_at`
		arg = a.SessionID
	default:
		return nil, ErrInvalidActor
	}

	var c Cart
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID,
		&c.UserID,
		&c.SessionID,
		&c.CouponCode,
		&c.DiscountAmount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create cart", zap.Error(err))
		return nil, err
	}

	log.Info("cart created", zap.Uint("cart_id", c.ID))
	return &c, nil
}

func (r *repository) GetItems(ctx context.Context, cartID uint) ([]CartItem, error) {
	query := `
	SELECT
		ci.id,
		ci.cart_id,
		ci.product_id,
		ci.quantity,
		ci.unit_price,
		ci.created_at,
		ci.updated_at,

		p.name,
		p.sku,
		p.price,
		p.discount_percentage,
		p.discount_starts_at,
		p.discount_ends_at,
		p.stock_quantity,
		p.track_stock,
		p.allow_backorder,
		p.weight_grams
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.cart_id = $1
	ORDER BY ci.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		item := CartItem{Product: &product.Product{}}
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.CreatedAt,
			&item.UpdatedAt,

			&item.Product.Name,
			&item.Product.SKU,
			&item.Product.Price,
			&item.Product.DiscountPercent,
			&item.Product.DiscountStartsAt,
			&item.Product.DiscountEndsAt,
			&item.Product.StockQuantity,
			&item.Product.TrackStock,
			&item.Product.AllowBackorder,
			&item.Product.WeightGrams,
		); err != nil {
			return nil, err
		}
		item.Product.ID = item.ProductID
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) GetItem(ctx context.Context, cartID, productID uint) (*CartItem, error) {
	query := `
	SELECT id, cart_id, product_id, quantity, unit_price, created_at, updated_at
	FROM cart_items
	WHERE cart_id = $1 AND product_id = $2
	`

	var item CartItem
	err := r.db.QueryRowContext(ctx, query, cartID, productID).Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.UnitPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *repository) InsertItem(ctx context.Context, params CreateItemParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "InsertItem"),
		zap.Uint("cart_id", params.CartID),
		zap.Uint("product_id", params.ProductID),
	)

	query := `
	INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
	VALUES ($1, $2, $3, $4)
	RETURNING id, cart_id, product_id, quantity, unit_price, created_at, updated_at
	`

	var item CartItem
	err := r.db.QueryRowContext(ctx, query,
		params.CartID,
		params.ProductID,
		params.Quantity,
		params.UnitPrice,
	).Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.UnitPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert cart item", zap.Error(err))
		return nil, err
	}

	log.Info("cart item created", zap.Uint("cart_item_id", item.ID))
	return &item, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
	`, quantity, itemID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *repository) RemoveItem(ctx context.Context, cartID, productID uint) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`, cartID, productID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *repository) Clear(ctx context.Context, cartID uint) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}

func (r *repository) SetCoupon(ctx context.Context, cartID uint, code *string, discount int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET coupon_code = $1, discount_amount = $2, updated_at = NOW()
		WHERE id = $3
	`, code, discount, cartID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotFound
	}

	return nil
}

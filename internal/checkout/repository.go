package checkout

import (
	"context"
	"database/sql"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/logger"
	"mebelin-be/internal/order"
	"mebelin-be/internal/product"

	"go.uber.org/zap"
)

// Repository holds the transactional pieces of checkout. Everything
// except BeginTx runs on the transaction the service opened, so the
// whole flow commits or rolls back as one unit.
type Repository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// LockCartItems loads the cart's lines joined with their products
	// and takes row locks on the product rows, freezing price and
	// stock for the rest of the transaction. Ordered by product id to
	// keep concurrent checkouts from deadlocking each other.
	LockCartItems(ctx context.Context, tx *sql.Tx, cartID uint) ([]cart.CartItem, error)

	OrderNumberExists(ctx context.Context, tx *sql.Tx, number string) (bool, error)
	InsertOrder(ctx context.Context, tx *sql.Tx, o *order.Order) error
	InsertOrderItems(ctx context.Context, tx *sql.Tx, orderID uint, items []order.OrderItem) error
	ClearCart(ctx context.Context, tx *sql.Tx, cartID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *repository) LockCartItems(ctx context.Context, tx *sql.Tx, cartID uint) ([]cart.CartItem, error) {
	query := `
	SELECT
		ci.id,
		ci.cart_id,
		ci.product_id,
		ci.quantity,
		ci.unit_price,

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
	WHERE ci.cart_id = $1 AND p.deleted_at IS NULL
	ORDER BY ci.product_id
	FOR UPDATE OF p
	`

	rows, err := tx.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []cart.CartItem
	for rows.Next() {
		item := cart.CartItem{Product: &product.Product{}}
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,

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

func (r *repository) OrderNumberExists(ctx context.Context, tx *sql.Tx, number string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)
	`, number).Scan(&exists)
	return exists, err
}

func (r *repository) InsertOrder(ctx context.Context, tx *sql.Tx, o *order.Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "InsertOrder"),
		zap.String("order_number", o.OrderNumber),
	)

	query := `
	INSERT INTO orders (
		order_number, user_id, status, payment_status, payment_method,
		subtotal, discount_amount, shipping_cost, tax_amount, total, coupon_code,
		shipping_name, shipping_phone, shipping_address, shipping_city,
		shipping_province, shipping_postal_code, courier, customer_notes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	RETURNING id, created_at, updated_at
	`

	err := tx.QueryRowContext(ctx, query,
		o.OrderNumber,
		o.UserID,
		o.Status,
		o.PaymentStatus,
		o.PaymentMethod,
		o.Subtotal,
		o.DiscountAmount,
		o.ShippingCost,
		o.TaxAmount,
		o.Total,
		o.CouponCode,
		o.ShippingName,
		o.ShippingPhone,
		o.ShippingAddress,
		o.ShippingCity,
		o.ShippingProvince,
		o.ShippingPostalCode,
		o.Courier,
		o.CustomerNotes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	log.Info("order inserted", zap.Uint("order_id", o.ID))
	return nil
}

func (r *repository) InsertOrderItems(ctx context.Context, tx *sql.Tx, orderID uint, items []order.OrderItem) error {
	query := `
	INSERT INTO order_items (
		order_id, product_id, product_name, product_sku,
		quantity, unit_price, original_price, discount_amount, subtotal
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id
	`

	for i := range items {
		items[i].OrderID = orderID
		if err := tx.QueryRowContext(ctx, query,
			orderID,
			items[i].ProductID,
			items[i].ProductName,
			items[i].ProductSKU,
			items[i].Quantity,
			items[i].UnitPrice,
			items[i].OriginalPrice,
			items[i].DiscountAmount,
			items[i].Subtotal,
		).Scan(&items[i].ID); err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) ClearCart(ctx context.Context, tx *sql.Tx, cartID uint) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}

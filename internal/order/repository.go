package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mebelin-be/internal/logger"
	"mebelin-be/internal/product"

	"go.uber.org/zap"
)

const orderColumns = `
	id,
	order_number,
	user_id,
	status,
	payment_status,
	payment_method,
	subtotal,
	discount_amount,
	shipping_cost,
	tax_amount,
	total,
	coupon_code,
	shipping_name,
	shipping_phone,
	shipping_address,
	shipping_city,
	shipping_province,
	shipping_postal_code,
	courier,
	tracking_number,
	customer_notes,
	admin_notes,
	cancellation_reason,
	paid_at,
	shipped_at,
	delivered_at,
	cancelled_at,
	created_at,
	updated_at
`

type ListFilter struct {
	UserID        *uint
	Status        *Status
	PaymentStatus *PaymentStatus
	Limit         int32
	Page          int32
}

type Repository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	GetOrderForUpdate(ctx context.Context, tx *sql.Tx, orderID uint) (*Order, error)
	GetReservationItems(ctx context.Context, tx *sql.Tx, orderID uint) ([]product.ReservationItem, error)
	SaveTransition(ctx context.Context, tx *sql.Tx, o *Order) error
	ListStalePendingPayments(ctx context.Context, cutoff time.Time) ([]uint, error)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.DiscountAmount,
		&o.ShippingCost,
		&o.TaxAmount,
		&o.Total,
		&o.CouponCode,
		&o.ShippingName,
		&o.ShippingPhone,
		&o.ShippingAddress,
		&o.ShippingCity,
		&o.ShippingProvince,
		&o.ShippingPostalCode,
		&o.Courier,
		&o.TrackingNumber,
		&o.CustomerNotes,
		&o.AdminNotes,
		&o.CancellationReason,
		&o.PaidAt,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND deleted_at IS NULL`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *repository) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 AND deleted_at IS NULL`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, number))
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *repository) getItems(ctx context.Context, orderID uint) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, product_sku,
			quantity, unit_price, original_price, discount_amount, subtotal, is_reviewed
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductSKU,
			&item.Quantity,
			&item.UnitPrice,
			&item.OriginalPrice,
			&item.DiscountAmount,
			&item.Subtotal,
			&item.IsReviewed,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *repository) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
	)

	finalLimit := int32(20)
	if filter.Limit > 0 {
		finalLimit = filter.Limit
	}
	if finalLimit > 100 {
		finalLimit = 100
	}

	finalPage := int32(1)
	if filter.Page > 0 {
		finalPage = filter.Page
	}
	offset := (finalPage - 1) * finalLimit

	query := `SELECT ` + orderColumns + ` FROM orders WHERE deleted_at IS NULL`
	args := []any{}
	argIndex := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.PaymentStatus != nil {
		query += fmt.Sprintf(" AND payment_status = $%d", argIndex)
		args = append(args, *filter.PaymentStatus)
		argIndex++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, finalLimit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("orders listed", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) GetOrderForUpdate(ctx context.Context, tx *sql.Tx, orderID uint) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	return scanOrder(tx.QueryRowContext(ctx, query, orderID))
}

func (r *repository) GetReservationItems(ctx context.Context, tx *sql.Tx, orderID uint) ([]product.ReservationItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM order_items
		WHERE order_id = $1 AND product_id IS NOT NULL
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []product.ReservationItem
	for rows.Next() {
		var item product.ReservationItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SaveTransition persists the mutable state-machine fields. Identity
// and monetary fields are frozen at creation and never touched here.
func (r *repository) SaveTransition(ctx context.Context, tx *sql.Tx, o *Order) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
			payment_status = $2,
			tracking_number = $3,
			admin_notes = $4,
			cancellation_reason = $5,
			paid_at = $6,
			shipped_at = $7,
			delivered_at = $8,
			cancelled_at = $9,
			updated_at = NOW()
		WHERE id = $10 AND deleted_at IS NULL
	`,
		o.Status,
		o.PaymentStatus,
		o.TrackingNumber,
		o.AdminNotes,
		o.CancellationReason,
		o.PaidAt,
		o.ShippedAt,
		o.DeliveredAt,
		o.CancelledAt,
		o.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// ListStalePendingPayments returns orders whose payment sat PENDING
// past the cutoff. COD orders are excluded: their payment stays
// PENDING until delivery.
func (r *repository) ListStalePendingPayments(ctx context.Context, cutoff time.Time) ([]uint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id
		FROM orders
		WHERE payment_status = $1
		  AND payment_method <> $2
		  AND created_at < $3
		  AND deleted_at IS NULL
		ORDER BY created_at
	`, PaymentPending, MethodCOD, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

package product

import (
	"context"
	"database/sql"
	"errors"
)

const productColumns = `
	id,
	name,
	sku,
	slug,
	price,
	discount_percentage,
	discount_starts_at,
	discount_ends_at,
	stock_quantity,
	track_stock,
	allow_backorder,
	sold_count,
	weight_grams,
	status,
	created_at,
	updated_at
`

type Repository interface {
	GetProduct(ctx context.Context, productID uint) (*Product, error)
	GetProductForUpdate(ctx context.Context, tx *sql.Tx, productID uint) (*Product, error)

	// ReserveForOrder and Restock run inside the caller's transaction
	// so a failed reservation unwinds everything the caller wrote.
	ReserveForOrder(ctx context.Context, tx *sql.Tx, items []ReservationItem) error
	Restock(ctx context.Context, tx *sql.Tx, items []ReservationItem) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func scanProduct(row *sql.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.SKU,
		&p.Slug,
		&p.Price,
		&p.DiscountPercent,
		&p.DiscountStartsAt,
		&p.DiscountEndsAt,
		&p.StockQuantity,
		&p.TrackStock,
		&p.AllowBackorder,
		&p.SoldCount,
		&p.WeightGrams,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetProduct(ctx context.Context, productID uint) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`

	return scanProduct(r.db.QueryRowContext(ctx, query, productID))
}

func (r *repository) GetProductForUpdate(ctx context.Context, tx *sql.Tx, productID uint) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	return scanProduct(tx.QueryRowContext(ctx, query, productID))
}

package product

import "time"

type Product struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	SKU              string     `json:"sku"`
	Slug             string     `json:"slug"`
	Price            int64      `json:"price"`
	DiscountPercent  *int       `json:"discount_percentage,omitempty"`
	DiscountStartsAt *time.Time `json:"discount_starts_at,omitempty"`
	DiscountEndsAt   *time.Time `json:"discount_ends_at,omitempty"`
	StockQuantity    int        `json:"stock_quantity"`
	TrackStock       bool       `json:"track_stock"`
	AllowBackorder   bool       `json:"allow_backorder"`
	SoldCount        int        `json:"sold_count"`
	WeightGrams      int        `json:"weight_grams"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Available reports how many units can still be sold with the oversell
// guard applied. Products without stock tracking (or with backorder
// enabled) are never constrained.
func (p *Product) Available() (int, bool) {
	if !p.TrackStock || p.AllowBackorder {
		return 0, false
	}
	return p.StockQuantity, true
}

// ReservationItem is one line of a stock reservation or restock.
type ReservationItem struct {
	ProductID uint
	Quantity  int
}

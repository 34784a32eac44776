package cart

import (
	"time"

	"mebelin-be/internal/product"

	"github.com/google/uuid"
)

// Actor identifies the owner of a cart: an authenticated user or a
// guest session. A cart belongs to exactly one of the two.
type Actor interface {
	isActor()
}

type User struct {
	ID uint
}

func (User) isActor() {}

type Guest struct {
	SessionID uuid.UUID
}

func (Guest) isActor() {}

type Cart struct {
	ID             uint       `json:"id"`
	UserID         *uint      `json:"user_id,omitempty"`
	SessionID      *uuid.UUID `json:"session_id,omitempty"`
	CouponCode     *string    `json:"coupon_code,omitempty"`
	DiscountAmount int64      `json:"discount_amount"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Items []CartItem `json:"items,omitempty"`
}

// Subtotal derives the cart total from the item snapshots. Never
// stored; checkout re-derives it from live catalog prices anyway.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

type CartItem struct {
	ID        uint      `json:"id"`
	CartID    uint      `json:"cart_id"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *product.Product `json:"product,omitempty"`
}

type CreateItemParams struct {
	CartID    uint
	ProductID uint
	Quantity  int
	UnitPrice int64
}

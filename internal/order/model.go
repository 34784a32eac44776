package order

import "time"

// Status is the fulfillment axis of an order's state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// PaymentStatus is the money axis, independent of fulfillment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentExpired PaymentStatus = "EXPIRED"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodEwallet      PaymentMethod = "EWALLET"
	MethodCOD          PaymentMethod = "COD"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentExpired:
		return true
	}
	return false
}

type Order struct {
	ID            uint          `json:"id"`
	OrderNumber   string        `json:"order_number"`
	UserID        *uint         `json:"user_id,omitempty"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method"`

	Subtotal       int64   `json:"subtotal"`
	DiscountAmount int64   `json:"discount_amount"`
	ShippingCost   int64   `json:"shipping_cost"`
	TaxAmount      int64   `json:"tax_amount"`
	Total          int64   `json:"total"`
	CouponCode     *string `json:"coupon_code,omitempty"`

	// Frozen shipping snapshot.
	ShippingName       string `json:"shipping_name"`
	ShippingPhone      string `json:"shipping_phone"`
	ShippingAddress    string `json:"shipping_address"`
	ShippingCity       string `json:"shipping_city"`
	ShippingProvince   string `json:"shipping_province"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	Courier            string `json:"courier"`

	TrackingNumber     *string `json:"tracking_number,omitempty"`
	CustomerNotes      *string `json:"customer_notes,omitempty"`
	AdminNotes         *string `json:"admin_notes,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is a frozen snapshot of the product at checkout time. Only
// is_reviewed may change afterwards.
type OrderItem struct {
	ID             uint   `json:"id"`
	OrderID        uint   `json:"order_id"`
	ProductID      *uint  `json:"product_id,omitempty"`
	ProductName    string `json:"product_name"`
	ProductSKU     string `json:"product_sku"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	OriginalPrice  int64  `json:"original_price"`
	DiscountAmount int64  `json:"discount_amount"`
	Subtotal       int64  `json:"subtotal"`
	IsReviewed     bool   `json:"is_reviewed"`
}

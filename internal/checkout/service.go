package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/logger"
	"mebelin-be/internal/order"
	"mebelin-be/internal/product"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxOrderNumberAttempts = 5

// CartFinder resolves the actor's cart. Satisfied by cart.Repository.
type CartFinder interface {
	FindCart(ctx context.Context, actor cart.Actor) (*cart.Cart, error)
}

// StockReserver decrements stock inside the checkout transaction.
// Satisfied by product.Repository.
type StockReserver interface {
	ReserveForOrder(ctx context.Context, tx *sql.Tx, items []product.ReservationItem) error
}

// CouponRedeemer turns the cart's coupon code into a discount and
// consumes one use of it. Satisfied by coupon.Validator.
type CouponRedeemer interface {
	Redeem(ctx context.Context, tx *sql.Tx, code string, subtotal int64) (int64, error)
}

// ShippingQuoter prices delivery. Satisfied by shipping.Quoter.
type ShippingQuoter interface {
	Quote(ctx context.Context, city string, weightGrams int, courier string) int64
}

// TaxRater supplies the store tax rate in basis points. Satisfied by
// settings.Repository.
type TaxRater interface {
	TaxBasisPoints(ctx context.Context) (int64, error)
}

type Input struct {
	Actor         cart.Actor
	PaymentMethod order.PaymentMethod

	ShippingName       string
	ShippingPhone      string
	ShippingAddress    string
	ShippingCity       string
	ShippingProvince   string
	ShippingPostalCode string
	Courier            string

	CustomerNotes *string
}

type Service interface {
	Checkout(ctx context.Context, input Input) (*order.Order, error)
}

type service struct {
	repo           Repository
	carts          CartFinder
	stock          StockReserver
	coupons        CouponRedeemer
	shipping       ShippingQuoter
	tax            TaxRater
	defaultCourier string

	// Collapses duplicate submissions for the same cart: double-clicks
	// share one order instead of racing for the same stock.
	group singleflight.Group
}

func NewService(
	repo Repository,
	carts CartFinder,
	stock StockReserver,
	coupons CouponRedeemer,
	shipping ShippingQuoter,
	tax TaxRater,
	defaultCourier string,
) Service {
	return &service{
		repo:           repo,
		carts:          carts,
		stock:          stock,
		coupons:        coupons,
		shipping:       shipping,
		tax:            tax,
		defaultCourier: defaultCourier,
	}
}

func validPaymentMethod(m order.PaymentMethod) bool {
	switch m {
	case order.MethodBankTransfer, order.MethodEwallet, order.MethodCOD:
		return true
	}
	return false
}

func (s *service) Checkout(ctx context.Context, input Input) (*order.Order, error) {
	if !validPaymentMethod(input.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	if input.ShippingName == "" || input.ShippingPhone == "" || input.ShippingAddress == "" ||
		input.ShippingCity == "" || input.ShippingProvince == "" || input.ShippingPostalCode == "" {
		return nil, ErrMissingShippingInfo
	}

	c, err := s.carts.FindCart(ctx, input.Actor)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, cart.ErrCartNotFound
	}

	key := fmt.Sprintf("cart:%d", c.ID)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.placeOrder(ctx, c, input)
	})
	if err != nil {
		return nil, err
	}

	return v.(*order.Order), nil
}

func (s *service) placeOrder(ctx context.Context, c *cart.Cart, input Input) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("cart_id", c.ID),
	)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	items, err := s.repo.LockCartItems(ctx, tx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, cart.ErrCartEmpty
	}

	now := time.Now()

	var (
		subtotal    int64
		weightGrams int
		orderItems  []order.OrderItem
		reservation []product.ReservationItem
	)
	for _, item := range items {
		unitPrice := product.EffectivePrice(item.Product, now)
		lineSubtotal := unitPrice * int64(item.Quantity)
		subtotal += lineSubtotal
		weightGrams += item.Product.WeightGrams * item.Quantity

		productID := item.ProductID
		// The catalog discount is already folded into unit_price, with
		// original_price keeping the pre-discount value. The line
		// discount stays zero so subtotal = unit_price * quantity holds.
		orderItems = append(orderItems, order.OrderItem{
			ProductID:     &productID,
			ProductName:   item.Product.Name,
			ProductSKU:    item.Product.SKU,
			Quantity:      item.Quantity,
			UnitPrice:     unitPrice,
			OriginalPrice: item.Product.Price,
			Subtotal:      lineSubtotal,
		})
		reservation = append(reservation, product.ReservationItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	var discount int64
	if c.CouponCode != nil {
		discount, err = s.coupons.Redeem(ctx, tx, *c.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
	}

	courier := input.Courier
	if courier == "" {
		courier = s.defaultCourier
	}
	shippingCost := s.shipping.Quote(ctx, input.ShippingCity, weightGrams, courier)

	taxBps, err := s.tax.TaxBasisPoints(ctx)
	if err != nil {
		return nil, err
	}
	taxAmount := (subtotal - discount) * taxBps / 10000

	total := subtotal - discount + shippingCost + taxAmount

	number, err := s.allocateOrderNumber(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		OrderNumber:   number,
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
		PaymentMethod: input.PaymentMethod,

		Subtotal:       subtotal,
		DiscountAmount: discount,
		ShippingCost:   shippingCost,
		TaxAmount:      taxAmount,
		Total:          total,
		CouponCode:     c.CouponCode,

		ShippingName:       input.ShippingName,
		ShippingPhone:      input.ShippingPhone,
		ShippingAddress:    input.ShippingAddress,
		ShippingCity:       input.ShippingCity,
		ShippingProvince:   input.ShippingProvince,
		ShippingPostalCode: input.ShippingPostalCode,
		Courier:            courier,

		CustomerNotes: input.CustomerNotes,
	}
	if u, ok := input.Actor.(cart.User); ok {
		o.UserID = &u.ID
	}

	if err := s.repo.InsertOrder(ctx, tx, o); err != nil {
		return nil, err
	}

	if err := s.repo.InsertOrderItems(ctx, tx, o.ID, orderItems); err != nil {
		return nil, err
	}

	if err := s.stock.ReserveForOrder(ctx, tx, reservation); err != nil {
		log.Warn("stock reservation failed, rolling back", zap.Error(err))
		return nil, err
	}

	if err := s.repo.ClearCart(ctx, tx, c.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	o.Items = orderItems

	log.Info("order placed",
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total", o.Total),
	)
	return o, nil
}

func (s *service) allocateOrderNumber(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number := NewOrderNumber(now)
		exists, err := s.repo.OrderNumberExists(ctx, tx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", ErrOrderNumberExhausted
}

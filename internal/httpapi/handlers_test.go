package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/checkout"
	"mebelin-be/internal/order"
	"mebelin-be/internal/product"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, actor cart.Actor) (*cart.Cart, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) FindOrCreateCart(ctx context.Context, actor cart.Actor) (*cart.Cart, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) AddToCart(ctx context.Context, actor cart.Actor, productID uint, quantity int) (*cart.CartItem, error) {
	args := m.Called(ctx, actor, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, actor cart.Actor, productID uint, quantity int) error {
	return m.Called(ctx, actor, productID, quantity).Error(0)
}

func (m *MockCartService) RemoveFromCart(ctx context.Context, actor cart.Actor, productID uint) error {
	return m.Called(ctx, actor, productID).Error(0)
}

func (m *MockCartService) ClearCart(ctx context.Context, actor cart.Actor) error {
	return m.Called(ctx, actor).Error(0)
}

func (m *MockCartService) MergeGuestIntoUser(ctx context.Context, userID uint, sessionID uuid.UUID) error {
	return m.Called(ctx, userID, sessionID).Error(0)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, input checkout.Input) (*order.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID uint, userID *uint, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, orderID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Ship(ctx context.Context, orderID uint, trackingNumber *string) (*order.Order, error) {
	args := m.Called(ctx, orderID, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Deliver(ctx context.Context, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, orderID uint, reason string) (*order.Order, error) {
	args := m.Called(ctx, orderID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ApplyAdminUpdate(ctx context.Context, orderID uint, update order.AdminUpdate) (*order.Order, error) {
	args := m.Called(ctx, orderID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ExpireStalePayments(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

type apiFixture struct {
	carts    *MockCartService
	checkout *MockCheckoutService
	orders   *MockOrderService
	router   http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		carts:    new(MockCartService),
		checkout: new(MockCheckoutService),
		orders:   new(MockOrderService),
	}
	f.router = NewRouter(f.carts, f.checkout, f.orders, testSecret)
	return f
}

func userToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func doJSON(f *apiFixture, method, path string, body any, auth func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	r := httptest.NewRequest(method, path, &buf)
	if auth != nil {
		auth(r)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func asUser(t *testing.T, userID uint) func(*http.Request) {
	token := userToken(t, userID, "")
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func asAdmin(t *testing.T) func(*http.Request) {
	token := userToken(t, 1, "admin")
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func asGuest(sid uuid.UUID) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("X-Session-ID", sid.String()) }
}

func TestCartEndpoints(t *testing.T) {
	t.Run("Get cart as guest", func(t *testing.T) {
		f := newAPIFixture(t)
		sid := uuid.New()

		f.carts.On("GetCart", mock.Anything, cart.Guest{SessionID: sid}).
			Return(&cart.Cart{ID: 1}, nil)

		w := doJSON(f, http.MethodGet, "/api/cart", nil, asGuest(sid))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Get cart anonymous is rejected", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(f, http.MethodGet, "/api/cart", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Add item", func(t *testing.T) {
		f := newAPIFixture(t)

		f.carts.On("AddToCart", mock.Anything, cart.User{ID: 7}, uint(3), 2).
			Return(&cart.CartItem{ID: 1, ProductID: 3, Quantity: 2}, nil)

		w := doJSON(f, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": 3, "quantity": 2}, asUser(t, 7))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Add item with no stock", func(t *testing.T) {
		f := newAPIFixture(t)

		f.carts.On("AddToCart", mock.Anything, cart.User{ID: 7}, uint(3), 2).
			Return(nil, cart.ErrInsufficientStock)

		w := doJSON(f, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": 3, "quantity": 2}, asUser(t, 7))
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, CodeOutOfStock, resp.Error.Code)
	})

	t.Run("Merge guest cart after login", func(t *testing.T) {
		f := newAPIFixture(t)
		sid := uuid.New()

		f.carts.On("MergeGuestIntoUser", mock.Anything, uint(7), sid).Return(nil)
		f.carts.On("GetCart", mock.Anything, cart.User{ID: 7}).Return(&cart.Cart{ID: 2}, nil)

		auth := asUser(t, 7)
		w := doJSON(f, http.MethodPost, "/api/cart/merge", nil, func(r *http.Request) {
			auth(r)
			r.Header.Set("X-Session-ID", sid.String())
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCheckoutEndpoint(t *testing.T) {
	body := map[string]any{
		"payment_method":       "BANK_TRANSFER",
		"shipping_name":        "Budi Santoso",
		"shipping_phone":       "081234567890",
		"shipping_address":     "Jl. Merdeka No. 1",
		"shipping_city":        "Jakarta",
		"shipping_province":    "DKI Jakarta",
		"shipping_postal_code": "10110",
	}

	t.Run("Success", func(t *testing.T) {
		f := newAPIFixture(t)

		f.checkout.On("Checkout", mock.Anything, mock.MatchedBy(func(in checkout.Input) bool {
			return in.PaymentMethod == order.MethodBankTransfer && in.ShippingCity == "Jakarta"
		})).Return(&order.Order{ID: 42, OrderNumber: "ORD-20250114-3KT9A2QF", Total: 115000}, nil)

		w := doJSON(f, http.MethodPost, "/api/checkout", body, asUser(t, 7))
		assert.Equal(t, http.StatusCreated, w.Code)

		var o order.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
		assert.Equal(t, int64(115000), o.Total)
	})

	t.Run("Out of stock maps to conflict", func(t *testing.T) {
		f := newAPIFixture(t)

		f.checkout.On("Checkout", mock.Anything, mock.Anything).
			Return(nil, &product.OutOfStockError{ProductID: 3, ProductName: "Sofa Minimalis", Available: 1, Requested: 5})

		w := doJSON(f, http.MethodPost, "/api/checkout", body, asUser(t, 8))
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, CodeOutOfStock, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "Sofa Minimalis")
	})

	t.Run("Anonymous is rejected", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(f, http.MethodPost, "/api/checkout", body, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOrderEndpoints(t *testing.T) {
	t.Run("Get own order", func(t *testing.T) {
		f := newAPIFixture(t)
		userID := uint(7)

		f.orders.On("GetOrder", mock.Anything, uint(42), &userID, false).
			Return(&order.Order{ID: 42, OrderNumber: "ORD-20250114-3KT9A2QF"}, nil)

		w := doJSON(f, http.MethodGet, "/api/orders/42", nil, asUser(t, 7))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Foreign order is forbidden", func(t *testing.T) {
		f := newAPIFixture(t)
		userID := uint(7)

		f.orders.On("GetOrder", mock.Anything, uint(42), &userID, false).
			Return(nil, order.ErrUnauthorized)

		w := doJSON(f, http.MethodGet, "/api/orders/42", nil, asUser(t, 7))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Cancel without reason", func(t *testing.T) {
		f := newAPIFixture(t)
		userID := uint(7)

		f.orders.On("GetOrder", mock.Anything, uint(42), &userID, false).
			Return(&order.Order{ID: 42}, nil)
		f.orders.On("Cancel", mock.Anything, uint(42), "").
			Return(nil, order.ErrCancellationReasonRequired)

		w := doJSON(f, http.MethodPost, "/api/orders/42/cancel",
			map[string]any{"reason": ""}, asUser(t, 7))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Payment instructions", func(t *testing.T) {
		f := newAPIFixture(t)
		userID := uint(7)

		f.orders.On("GetOrder", mock.Anything, uint(42), &userID, false).
			Return(&order.Order{
				ID: 42, OrderNumber: "ORD-20250114-3KT9A2QF",
				PaymentMethod: order.MethodBankTransfer, Total: 115000,
			}, nil)

		w := doJSON(f, http.MethodGet, "/api/orders/42/instructions", nil, asUser(t, 7))
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["steps"])
	})

	t.Run("List scoped to the caller", func(t *testing.T) {
		f := newAPIFixture(t)
		userID := uint(7)

		f.orders.On("ListOrders", mock.Anything, mock.MatchedBy(func(filter order.ListFilter) bool {
			return filter.UserID != nil && *filter.UserID == userID
		})).Return([]*order.Order{}, nil)

		w := doJSON(f, http.MethodGet, "/api/orders", nil, asUser(t, 7))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	t.Run("Non-admin cannot reach the admin surface", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(f, http.MethodGet, "/api/admin/orders", nil, asUser(t, 7))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Partial update", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("ApplyAdminUpdate", mock.Anything, uint(42), mock.MatchedBy(func(u order.AdminUpdate) bool {
			return u.Status != nil && *u.Status == order.StatusProcessing &&
				u.PaymentStatus != nil && *u.PaymentStatus == order.PaymentPaid
		})).Return(&order.Order{ID: 42, Status: order.StatusProcessing, PaymentStatus: order.PaymentPaid}, nil)

		w := doJSON(f, http.MethodPatch, "/api/admin/orders/42",
			map[string]any{"status": "PROCESSING", "payment_status": "PAID"}, asAdmin(t))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Illegal transition maps to conflict", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("ApplyAdminUpdate", mock.Anything, uint(42), mock.Anything).
			Return(nil, &order.InvalidTransitionError{Axis: "status", From: "PENDING", To: "SHIPPED"})

		w := doJSON(f, http.MethodPatch, "/api/admin/orders/42",
			map[string]any{"status": "SHIPPED"}, asAdmin(t))
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, CodeInvalidTransition, resp.Error.Code)
		assert.Equal(t, "PENDING", resp.Error.Details["from"])
	})
}

package order

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"mebelin-be/internal/product"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository mocks Repository; BeginTx hands out transactions from
// a sqlmock database so commit/rollback can be asserted.
type MockRepository struct {
	mock.Mock
	db *sql.DB
}

func (m *MockRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return m.db.Begin()
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) GetOrderForUpdate(ctx context.Context, tx *sql.Tx, orderID uint) (*Order, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetReservationItems(ctx context.Context, tx *sql.Tx, orderID uint) ([]product.ReservationItem, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.ReservationItem), args.Error(1)
}

func (m *MockRepository) SaveTransition(ctx context.Context, tx *sql.Tx, o *Order) error {
	args := m.Called(ctx, tx, o)
	return args.Error(0)
}

func (m *MockRepository) ListStalePendingPayments(ctx context.Context, cutoff time.Time) ([]uint, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

// MockProductRepository mocks the catalog/stock dependency.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetProduct(ctx context.Context, productID uint) (*product.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) GetProductForUpdate(ctx context.Context, tx *sql.Tx, productID uint) (*product.Product, error) {
	args := m.Called(ctx, tx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) ReserveForOrder(ctx context.Context, tx *sql.Tx, items []product.ReservationItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockProductRepository) Restock(ctx context.Context, tx *sql.Tx, items []product.ReservationItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func newTestService(t *testing.T) (*MockRepository, *MockProductRepository, Service, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := &MockRepository{db: db}
	productRepo := new(MockProductRepository)

	return repo, productRepo, NewService(repo, productRepo), dbMock
}

func TestService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending}, nil)
		repo.On("SaveTransition", ctx, mock.Anything, mock.Anything).Return(nil)

		o, err := svc.ConfirmPayment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, PaymentPaid, o.PaymentStatus)
		assert.NotNil(t, o.PaidAt)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Already paid rolls back", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, PaymentStatus: PaymentPaid}, nil)

		_, err := svc.ConfirmPayment(ctx, 1)
		require.Error(t, err)

		_, ok := AsInvalidTransition(err)
		assert.True(t, ok)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestService_Ship(t *testing.T) {
	ctx := context.Background()

	t.Run("Sets tracking number", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusProcessing, PaymentStatus: PaymentPaid}, nil)
		repo.On("SaveTransition", ctx, mock.Anything, mock.Anything).Return(nil)

		tracking := "JNE-12345"
		o, err := svc.Ship(ctx, 1, &tracking)
		require.NoError(t, err)
		assert.Equal(t, StatusShipped, o.Status)
		require.NotNil(t, o.TrackingNumber)
		assert.Equal(t, tracking, *o.TrackingNumber)
	})

	t.Run("Rejected from PENDING", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending}, nil)

		_, err := svc.Ship(ctx, 1, nil)
		require.Error(t, err)

		ite, ok := AsInvalidTransition(err)
		require.True(t, ok)
		assert.Equal(t, "PENDING", ite.From)
		assert.Equal(t, "SHIPPED", ite.To)
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Restocks items in the same transaction", func(t *testing.T) {
		repo, productRepo, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		items := []product.ReservationItem{{ProductID: 2, Quantity: 3}}
		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending}, nil)
		repo.On("GetReservationItems", ctx, mock.Anything, uint(1)).Return(items, nil)
		productRepo.On("Restock", ctx, mock.Anything, items).Return(nil)
		repo.On("SaveTransition", ctx, mock.Anything, mock.Anything).Return(nil)

		o, err := svc.Cancel(ctx, 1, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		require.NotNil(t, o.CancellationReason)
		assert.Equal(t, "changed my mind", *o.CancellationReason)

		productRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Missing reason rejected before any write", func(t *testing.T) {
		repo, _, svc, _ := newTestService(t)

		_, err := svc.Cancel(ctx, 1, "")
		assert.ErrorIs(t, err, ErrCancellationReasonRequired)
		repo.AssertNotCalled(t, "GetOrderForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Second cancel rejected, restock not re-applied", func(t *testing.T) {
		repo, productRepo, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusCancelled, PaymentStatus: PaymentPending}, nil)

		_, err := svc.Cancel(ctx, 1, "again")
		require.Error(t, err)

		productRepo.AssertNotCalled(t, "Restock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed restock unwinds the status change", func(t *testing.T) {
		repo, productRepo, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		items := []product.ReservationItem{{ProductID: 2, Quantity: 3}}
		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending}, nil)
		repo.On("GetReservationItems", ctx, mock.Anything, uint(1)).Return(items, nil)
		productRepo.On("Restock", ctx, mock.Anything, items).Return(assert.AnError)

		_, err := svc.Cancel(ctx, 1, "whatever")
		require.Error(t, err)

		repo.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestService_ApplyAdminUpdate(t *testing.T) {
	ctx := context.Background()

	status := func(s Status) *Status { return &s }
	payment := func(s PaymentStatus) *PaymentStatus { return &s }
	str := func(s string) *string { return &s }

	t.Run("Empty update rejected", func(t *testing.T) {
		_, _, svc, _ := newTestService(t)

		_, err := svc.ApplyAdminUpdate(ctx, 1, AdminUpdate{})
		assert.ErrorIs(t, err, ErrNothingToUpdate)
	})

	t.Run("Unknown status rejected", func(t *testing.T) {
		_, _, svc, _ := newTestService(t)

		bogus := Status("SHIPPING")
		_, err := svc.ApplyAdminUpdate(ctx, 1, AdminUpdate{Status: &bogus})
		assert.ErrorIs(t, err, ErrUnknownStatus)
	})

	t.Run("Cancel without reason rejected", func(t *testing.T) {
		_, _, svc, _ := newTestService(t)

		_, err := svc.ApplyAdminUpdate(ctx, 1, AdminUpdate{Status: status(StatusCancelled)})
		assert.ErrorIs(t, err, ErrCancellationReasonRequired)
	})

	t.Run("Payment applied before status so both land in one call", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending, PaymentMethod: MethodBankTransfer}, nil)
		repo.On("SaveTransition", ctx, mock.Anything, mock.Anything).Return(nil)

		o, err := svc.ApplyAdminUpdate(ctx, 1, AdminUpdate{
			Status:        status(StatusProcessing),
			PaymentStatus: payment(PaymentPaid),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, o.Status)
		assert.Equal(t, PaymentPaid, o.PaymentStatus)
	})

	t.Run("Any invalid field rejects the whole update", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPaid}, nil)

		// payment_status is already terminal: the tracking number must
		// not be applied either.
		_, err := svc.ApplyAdminUpdate(ctx, 1, AdminUpdate{
			PaymentStatus:  payment(PaymentFailed),
			TrackingNumber: str("JNE-1"),
		})
		require.Error(t, err)

		repo.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Notes-only update", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending}, nil)
		repo.On("SaveTransition", ctx, mock.Anything, mock.Anything).Return(nil)

		o, err := svc.ApplyAdminUpdate(ctx, 1, AdminUpdate{AdminNotes: str("called the customer")})
		require.NoError(t, err)
		require.NotNil(t, o.AdminNotes)
		assert.Equal(t, "called the customer", *o.AdminNotes)
	})
}

func TestService_GetOrder(t *testing.T) {
	ctx := context.Background()
	ownerID := uint(7)

	t.Run("Owner can read", func(t *testing.T) {
		repo, _, svc, _ := newTestService(t)

		repo.On("GetOrder", ctx, uint(1)).
			Return(&Order{ID: 1, UserID: &ownerID}, nil)

		o, err := svc.GetOrder(ctx, 1, &ownerID, false)
		require.NoError(t, err)
		assert.Equal(t, uint(1), o.ID)
	})

	t.Run("Stranger cannot", func(t *testing.T) {
		repo, _, svc, _ := newTestService(t)

		repo.On("GetOrder", ctx, uint(1)).
			Return(&Order{ID: 1, UserID: &ownerID}, nil)

		stranger := uint(8)
		_, err := svc.GetOrder(ctx, 1, &stranger, false)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("Admin can read anything", func(t *testing.T) {
		repo, _, svc, _ := newTestService(t)

		repo.On("GetOrder", ctx, uint(1)).
			Return(&Order{ID: 1, UserID: &ownerID}, nil)

		_, err := svc.GetOrder(ctx, 1, nil, true)
		assert.NoError(t, err)
	})
}

func TestService_ExpireStalePayments(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)

	t.Run("Expires and cancels unfulfilled orders", func(t *testing.T) {
		repo, productRepo, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		repo.On("ListStalePendingPayments", ctx, cutoff).Return([]uint{1}, nil)
		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending}, nil)

		items := []product.ReservationItem{{ProductID: 2, Quantity: 1}}
		repo.On("GetReservationItems", ctx, mock.Anything, uint(1)).Return(items, nil)
		productRepo.On("Restock", ctx, mock.Anything, items).Return(nil)
		repo.On("SaveTransition", ctx, mock.Anything, mock.MatchedBy(func(o *Order) bool {
			return o.PaymentStatus == PaymentExpired && o.Status == StatusCancelled
		})).Return(nil)

		count, err := svc.ExpireStalePayments(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		productRepo.AssertExpectations(t)
	})

	t.Run("Order paid since the list query is skipped", func(t *testing.T) {
		repo, productRepo, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		repo.On("ListStalePendingPayments", ctx, cutoff).Return([]uint{1}, nil)
		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusProcessing, PaymentStatus: PaymentPaid}, nil)

		count, err := svc.ExpireStalePayments(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		productRepo.AssertNotCalled(t, "Restock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("COD order is left untouched", func(t *testing.T) {
		repo, productRepo, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		repo.On("ListStalePendingPayments", ctx, cutoff).Return([]uint{1}, nil)
		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusPending, PaymentStatus: PaymentPending, PaymentMethod: MethodCOD}, nil)

		count, err := svc.ExpireStalePayments(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		repo.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
		productRepo.AssertNotCalled(t, "Restock", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Shipped order keeps its status but payment expires", func(t *testing.T) {
		repo, _, svc, dbMock := newTestService(t)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		repo.On("ListStalePendingPayments", ctx, cutoff).Return([]uint{1}, nil)
		repo.On("GetOrderForUpdate", ctx, mock.Anything, uint(1)).
			Return(&Order{ID: 1, Status: StatusShipped, PaymentStatus: PaymentPending}, nil)
		repo.On("SaveTransition", ctx, mock.Anything, mock.MatchedBy(func(o *Order) bool {
			return o.PaymentStatus == PaymentExpired && o.Status == StatusShipped
		})).Return(nil)

		count, err := svc.ExpireStalePayments(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

package order

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTx is a mock implementation of the TxStore interface.
type mockTx struct {
	products       []Product
	productsErr    error
	insertOrderErr error
	decrementErr   error
	insertLineErr  error

	orderID     uuid.UUID
	createdAt   time.Time
	created     *Order
	decremented map[uuid.UUID]int32
	lines       []Line
}

func (m *mockTx) ProductsForUpdate(_ context.Context, _ []uuid.UUID) ([]Product, error) {
	if m.productsErr != nil {
		return nil, m.productsErr
	}
	return m.products, nil
}

func (m *mockTx) InsertOrder(_ context.Context, userID uuid.UUID, status string, totalPrice decimal.Decimal) (*Order, error) {
	if m.insertOrderErr != nil {
		return nil, m.insertOrderErr
	}
	m.created = &Order{ID: m.orderID, UserID: userID, Status: status, TotalPrice: totalPrice, CreatedAt: m.createdAt}
	return m.created, nil
}

func (m *mockTx) DecrementStock(_ context.Context, productID uuid.UUID, by int32) error {
	if m.decrementErr != nil {
		return m.decrementErr
	}
	if m.decremented == nil {
		m.decremented = make(map[uuid.UUID]int32)
	}
	m.decremented[productID] += by
	return nil
}

func (m *mockTx) InsertLine(_ context.Context, line Line) error {
	if m.insertLineErr != nil {
		return m.insertLineErr
	}
	m.lines = append(m.lines, line)
	return nil
}

// mockStore is a mock implementation of the Store interface.
type mockStore struct {
	tx    *mockTx
	txErr error

	order   *Order
	lines   []Line
	findErr error

	orders        []OrderWithLines
	total         int64
	findOrdersErr error
	findCalls     int
}

func (m *mockStore) WithinTx(_ context.Context, fn func(tx TxStore) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m.tx)
}

func (m *mockStore) FindByID(_ context.Context, _ uuid.UUID) (*Order, []Line, error) {
	if m.findErr != nil {
		return nil, nil, m.findErr
	}
	return m.order, m.lines, nil
}

func (m *mockStore) FindOrdersByUserID(_ context.Context, _ uuid.UUID, _, _ int32) ([]OrderWithLines, int64, error) {
	m.findCalls++
	if m.findOrdersErr != nil {
		return nil, 0, m.findOrdersErr
	}
	return m.orders, m.total, nil
}

// mockPublisher records published events.
type mockPublisher struct {
	events []messaging.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Test_OrderService_Create_PartialFulfilment(t *testing.T) {
	// given
	userID := uuid.New()
	cheap := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(10), Stock: 5}
	mid := Product{ID: uuid.New(), Name: "Shirt", Price: decimal.NewFromInt(25), Stock: 5}
	scarce := Product{ID: uuid.New(), Name: "Poster", Price: decimal.NewFromInt(40), Stock: 1}
	tx := &mockTx{
		products:  []Product{cheap, mid, scarce},
		orderID:   uuid.New(),
		createdAt: time.Now(),
	}
	store := &mockStore{tx: tx}
	pub := &mockPublisher{}
	service := NewService(store, pub, time.Minute, testLogger())

	// when: the scarce product is over-requested and must be dropped
	created, err := service.Create(context.Background(), userID, []LineRequest{
		{ProductID: cheap.ID, Quantity: 2},
		{ProductID: mid.ID, Quantity: 3},
		{ProductID: scarce.ID, Quantity: 4},
	})

	// then
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, StatusPending, created.Status)
	require.Len(t, created.Lines, 2, "over-requested product should be dropped, not rejected")

	// total = (10 + 25) x (2 + 3 + 4); dropped quantities still count
	assert.True(t, decimal.NewFromInt(315).Equal(created.TotalPrice),
		"expected 315, got %s", created.TotalPrice)

	assert.Equal(t, int32(2), tx.decremented[cheap.ID])
	assert.Equal(t, int32(3), tx.decremented[mid.ID])
	_, touched := tx.decremented[scarce.ID]
	assert.False(t, touched, "dropped product stock must not change")

	require.Len(t, pub.events, 1)
	assert.Equal(t, messaging.OrdersPlacedSubject, pub.events[0].Subject())
}

func Test_OrderService_Create_DefaultQuantity(t *testing.T) {
	// given
	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(10), Stock: 3}
	tx := &mockTx{products: []Product{product}, orderID: uuid.New(), createdAt: time.Now()}
	service := NewService(&mockStore{tx: tx}, &mockPublisher{}, time.Minute, testLogger())

	// when: no quantity on the request
	created, err := service.Create(context.Background(), uuid.New(), []LineRequest{{ProductID: product.ID}})

	// then
	require.NoError(t, err)
	require.Len(t, created.Lines, 1)
	assert.Equal(t, int32(1), created.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(created.TotalPrice))
}

func Test_OrderService_Create_Errors(t *testing.T) {
	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(10), Stock: 3}
	testCases := []struct {
		name        string
		store       *mockStore
		requests    []LineRequest
		expectError error
	}{
		{
			name:        "Error - empty order",
			store:       &mockStore{tx: &mockTx{}},
			requests:    nil,
			expectError: ErrEmptyOrder,
		},
		{
			name:        "Error - product lookup failed",
			store:       &mockStore{tx: &mockTx{productsErr: ErrFailedToFindProducts}},
			requests:    []LineRequest{{ProductID: product.ID, Quantity: 1}},
			expectError: ErrFailedToFindProducts,
		},
		{
			name:        "Error - order insert failed",
			store:       &mockStore{tx: &mockTx{products: []Product{product}, insertOrderErr: ErrCreateOrder}},
			requests:    []LineRequest{{ProductID: product.ID, Quantity: 1}},
			expectError: ErrCreateOrder,
		},
		{
			name: "Error - stock decrement failed",
			store: &mockStore{tx: &mockTx{
				products: []Product{product}, orderID: uuid.New(), decrementErr: ErrDecrementStock,
			}},
			requests:    []LineRequest{{ProductID: product.ID, Quantity: 1}},
			expectError: ErrDecrementStock,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			pub := &mockPublisher{}
			service := NewService(tc.store, pub, time.Minute, testLogger())
			// when
			created, err := service.Create(context.Background(), uuid.New(), tc.requests)
			// then
			assert.ErrorIs(t, err, tc.expectError)
			assert.Nil(t, created)
			assert.Empty(t, pub.events, "no event may be published for a rolled-back order")
		})
	}
}

func Test_OrderService_Create_PublishFailureDoesNotFailOrder(t *testing.T) {
	// given
	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(10), Stock: 3}
	tx := &mockTx{products: []Product{product}, orderID: uuid.New(), createdAt: time.Now()}
	pub := &mockPublisher{err: assert.AnError}
	service := NewService(&mockStore{tx: tx}, pub, time.Minute, testLogger())

	// when
	created, err := service.Create(context.Background(), uuid.New(), []LineRequest{{ProductID: product.ID, Quantity: 2}})

	// then: the order is committed; the lost notification is only logged
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func Test_OrderService_FindUserOrders(t *testing.T) {
	// given
	userID := uuid.New()
	createdAt := time.Now()
	store := &mockStore{
		orders: []OrderWithLines{{
			Order: Order{ID: uuid.New(), UserID: userID, Status: StatusPending, TotalPrice: decimal.NewFromInt(100), CreatedAt: createdAt},
		}},
		total: 31,
	}
	service := NewService(store, &mockPublisher{}, time.Minute, testLogger())

	// when
	page, err := service.FindUserOrders(context.Background(), userID, 2)

	// then
	require.NoError(t, err)
	assert.Equal(t, int32(2), page.Page)
	assert.Equal(t, int32(PageSize), page.PerPage)
	assert.Equal(t, int64(31), page.Total)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, createdAt.Format(time.RFC3339), page.Orders[0].CreatedAt)
}

func Test_OrderService_FindUserOrders_ServesFromCache(t *testing.T) {
	// given
	userID := uuid.New()
	store := &mockStore{
		orders: []OrderWithLines{{Order: Order{ID: uuid.New(), UserID: userID, Status: StatusPending}}},
		total:  1,
	}
	service := NewService(store, &mockPublisher{}, time.Minute, testLogger())
	first, err := service.FindUserOrders(context.Background(), userID, 1)
	require.NoError(t, err)

	// when: the store changes underneath, within the TTL
	store.total = 2
	second, err := service.FindUserOrders(context.Background(), userID, 1)

	// then: the cached page is served unchanged
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, store.findCalls)
}

func Test_OrderService_FindUserOrders_NormalizesPage(t *testing.T) {
	// given
	store := &mockStore{total: 0}
	service := NewService(store, &mockPublisher{}, time.Minute, testLogger())

	// when
	page, err := service.FindUserOrders(context.Background(), uuid.New(), -3)

	// then
	require.NoError(t, err)
	assert.Equal(t, int32(1), page.Page)
}

func Test_OrderService_FindByID(t *testing.T) {
	mockID := uuid.New()
	mockUserID := uuid.New()
	createdAt := time.Now()

	testCases := []struct {
		name        string
		mockStore   *mockStore
		userID      uuid.UUID
		expectError error
	}{
		{
			name: "Success - order found",
			mockStore: &mockStore{
				order: &Order{ID: mockID, UserID: mockUserID, Status: StatusPending, TotalPrice: decimal.NewFromInt(50), CreatedAt: createdAt},
				lines: []Line{{OrderID: mockID, ProductID: uuid.New(), ProductName: "Mug", Price: decimal.NewFromInt(25), Quantity: 2}},
			},
			userID:      mockUserID,
			expectError: nil,
		},
		{
			name:        "Error - order not found",
			mockStore:   &mockStore{findErr: ErrOrderNotFound},
			userID:      mockUserID,
			expectError: ErrOrderNotFound,
		},
		{
			name: "Error - access denied",
			mockStore: &mockStore{
				order: &Order{ID: mockID, UserID: uuid.New(), Status: StatusPending, CreatedAt: createdAt},
			},
			userID:      mockUserID,
			expectError: ErrAccessDenied,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &mockPublisher{}, time.Minute, testLogger())
			// when
			found, err := service.FindByID(context.Background(), tc.userID, mockID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, mockID, found.ID)
			assert.Equal(t, mockUserID, found.UserID)
			require.Len(t, found.Lines, 1)
			assert.Equal(t, "Mug", found.Lines[0].Name)
		})
	}
}

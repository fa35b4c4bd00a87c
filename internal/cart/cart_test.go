package cart

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage is an in-memory Storage for tests.
type memStorage struct {
	lines   []Line
	saves   int
	saveErr error
	loadErr error
}

func (m *memStorage) Load() ([]Line, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.lines, nil
}

func (m *memStorage) Save(lines []Line) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.lines = append([]Line(nil), lines...)
	m.saves++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *memStorage) {
	t.Helper()
	storage := &memStorage{}
	return NewStore(storage, testLogger()), storage
}

func Test_Cart_Add_StopsAtFrozenCeiling(t *testing.T) {
	// given
	store, _ := newTestStore(t)
	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(5), Stock: 5}

	// when: six adds against a stock of five
	var lastErr error
	for range 6 {
		lastErr = store.Add(product)
	}

	// then
	assert.ErrorIs(t, lastErr, ErrStockCeiling)
	line, ok := store.Find(product.ID)
	require.True(t, ok)
	assert.Equal(t, int32(5), line.Quantity)
	assert.Equal(t, int32(5), line.OriginalStock)
}

func Test_Cart_Add_CeilingStaysFrozen(t *testing.T) {
	// given: the line was created when stock was 2
	store, _ := newTestStore(t)
	id := uuid.New()
	require.NoError(t, store.Add(Product{ID: id, Name: "Mug", Price: decimal.NewFromInt(5), Stock: 2}))

	// when: later adds carry a much higher live stock snapshot
	restocked := Product{ID: id, Name: "Mug", Price: decimal.NewFromInt(5), Stock: 100}
	require.NoError(t, store.Add(restocked))
	err := store.Add(restocked)

	// then: the ceiling is still the stock level at first add
	assert.ErrorIs(t, err, ErrStockCeiling)
	line, _ := store.Find(id)
	assert.Equal(t, int32(2), line.Quantity)
	assert.Equal(t, int32(2), line.OriginalStock)
}

func Test_Cart_Add_OutOfStock(t *testing.T) {
	// given
	store, storage := newTestStore(t)

	// when
	err := store.Add(Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(5), Stock: 0})

	// then: rejected without touching cart or storage
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, store.Lines())
	assert.Zero(t, storage.saves)
}

func Test_Cart_Decrement(t *testing.T) {
	// given
	store, _ := newTestStore(t)
	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(5), Stock: 5}
	require.NoError(t, store.Add(product))
	require.NoError(t, store.Add(product))

	// when
	store.Decrement(product.ID)
	// then
	line, ok := store.Find(product.ID)
	require.True(t, ok)
	assert.Equal(t, int32(1), line.Quantity)

	// when: decremented at quantity one
	store.Decrement(product.ID)
	// then: the line is removed
	_, ok = store.Find(product.ID)
	assert.False(t, ok)

	// decrementing an absent product is a no-op
	store.Decrement(uuid.New())
	assert.Empty(t, store.Lines())
}

func Test_Cart_SetQuantity(t *testing.T) {
	productID := uuid.New()
	product := Product{ID: productID, Name: "Mug", Price: decimal.NewFromInt(5), Stock: 5}

	testCases := []struct {
		name         string
		quantity     int32
		expectError  error
		expectGone   bool
		expectedQty  int32
		expectedSave int32
	}{
		{name: "Set within ceiling", quantity: 3, expectedQty: 3, expectedSave: 3},
		{name: "Zero removes the line", quantity: 0, expectGone: true},
		{name: "Negative removes the line", quantity: -3, expectGone: true},
		{name: "Above ceiling clamps and signals", quantity: 9, expectError: ErrStockCeiling, expectedQty: 5, expectedSave: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			store, storage := newTestStore(t)
			require.NoError(t, store.Add(product))

			// when
			err := store.SetQuantity(productID, tc.quantity)

			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
			} else {
				assert.NoError(t, err)
			}
			line, ok := store.Find(productID)
			if tc.expectGone {
				assert.False(t, ok)
				assert.Empty(t, storage.lines)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.expectedQty, line.Quantity)
			// the clamped value is what got persisted
			require.Len(t, storage.lines, 1)
			assert.Equal(t, tc.expectedSave, storage.lines[0].Quantity)
		})
	}
}

func Test_Cart_SetQuantity_UnknownProduct(t *testing.T) {
	// given
	store, storage := newTestStore(t)

	// when
	err := store.SetQuantity(uuid.New(), 3)

	// then
	assert.NoError(t, err)
	assert.Zero(t, storage.saves)
}

func Test_Cart_RemoveAndClear(t *testing.T) {
	// given
	store, storage := newTestStore(t)
	first := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(5), Stock: 5}
	second := Product{ID: uuid.New(), Name: "Shirt", Price: decimal.NewFromInt(20), Stock: 5}
	require.NoError(t, store.Add(first))
	require.NoError(t, store.Add(second))

	// when
	store.Remove(first.ID)
	// then
	_, ok := store.Find(first.ID)
	assert.False(t, ok)
	assert.Len(t, store.Lines(), 1)

	// when
	store.Clear()
	// then
	assert.Empty(t, store.Lines())
	assert.Empty(t, storage.lines)
}

func Test_Cart_Totals(t *testing.T) {
	// given
	store, _ := newTestStore(t)
	mug := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(10), Stock: 10}
	sticker := Product{ID: uuid.New(), Name: "Sticker", Price: decimal.NewFromFloat(2.5), Stock: 10}
	require.NoError(t, store.Add(mug))
	require.NoError(t, store.Add(mug))
	require.NoError(t, store.Add(sticker))
	require.NoError(t, store.Add(sticker))

	// then: subtotal 25, flat shipping 10, 10% tax 2.5
	assert.True(t, decimal.NewFromInt(25).Equal(store.Subtotal()), "subtotal %s", store.Subtotal())
	assert.True(t, decimal.NewFromInt(10).Equal(store.Shipping()), "shipping %s", store.Shipping())
	assert.True(t, decimal.NewFromFloat(2.5).Equal(store.Tax()), "tax %s", store.Tax())
	assert.True(t, decimal.NewFromFloat(37.5).Equal(store.Total()), "total %s", store.Total())
}

func Test_Cart_Totals_EmptyCart(t *testing.T) {
	// given
	store, _ := newTestStore(t)

	// then: no shipping fee on an empty cart
	assert.True(t, store.Subtotal().IsZero())
	assert.True(t, store.Shipping().IsZero())
	assert.True(t, store.Tax().IsZero())
	assert.True(t, store.Total().IsZero())
}

func Test_Cart_WriteThroughAndRehydrate(t *testing.T) {
	// given
	storage := &memStorage{}
	store := NewStore(storage, testLogger())
	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(5), Stock: 5}
	require.NoError(t, store.Add(product))
	require.NoError(t, store.Add(product))

	// when: a fresh store over the same storage
	rehydrated := NewStore(storage, testLogger())

	// then
	line, ok := rehydrated.Find(product.ID)
	require.True(t, ok)
	assert.Equal(t, int32(2), line.Quantity)
	assert.Equal(t, int32(5), line.OriginalStock)
}

func Test_Cart_SaveFailureKeepsMemoryState(t *testing.T) {
	// given
	storage := &memStorage{saveErr: assert.AnError}
	store := NewStore(storage, testLogger())
	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(5), Stock: 5}

	// when
	err := store.Add(product)

	// then: the mutation sticks in memory even though persistence failed
	assert.NoError(t, err)
	_, ok := store.Find(product.ID)
	assert.True(t, ok)
}

func Test_Cart_LoadFailureStartsEmpty(t *testing.T) {
	// given
	storage := &memStorage{loadErr: assert.AnError}

	// when
	store := NewStore(storage, testLogger())

	// then
	assert.Empty(t, store.Lines())
}

func Test_FileStorage_RoundTrip(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "cart.json")
	storage := NewFileStorage(path)
	lines := []Line{{
		ProductID:     uuid.New(),
		Name:          "Mug",
		Price:         decimal.NewFromFloat(9.99),
		Quantity:      2,
		OriginalStock: 5,
	}}

	// when
	require.NoError(t, storage.Save(lines))
	loaded, err := storage.Load()

	// then
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, lines[0].ProductID, loaded[0].ProductID)
	assert.Equal(t, int32(2), loaded[0].Quantity)
	assert.Equal(t, int32(5), loaded[0].OriginalStock)
	assert.True(t, lines[0].Price.Equal(loaded[0].Price))
}

func Test_FileStorage_MissingFileIsEmptyCart(t *testing.T) {
	// given
	storage := NewFileStorage(filepath.Join(t.TempDir(), "absent.json"))

	// when
	lines, err := storage.Load()

	// then
	assert.NoError(t, err)
	assert.Nil(t, lines)
}

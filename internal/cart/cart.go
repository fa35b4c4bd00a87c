// Package cart implements the client-side shopping cart: a synchronous state
// machine over lines, persisted write-through on every mutation. The cart only
// enforces an optimistic stock ceiling frozen at first add; the order service
// re-validates against authoritative stock at placement.
package cart

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrOutOfStock signals an add against a product with no stock left.
var ErrOutOfStock = errors.New("product is out of stock")

// ErrStockCeiling signals that a mutation hit the line's frozen stock ceiling.
var ErrStockCeiling = errors.New("maximum available stock reached")

// Product is the live product snapshot handed to Add.
type Product struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
	Image string
	Stock int32
}

// Line is one cart line. OriginalStock freezes the product's stock level at
// the moment the line was first added and is never refreshed; it is the
// quantity ceiling for the line's whole lifetime even if true stock moves.
type Line struct {
	ProductID     uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image,omitempty"`
	Quantity      int32           `json:"quantity"`
	OriginalStock int32           `json:"originalStock"`
}

var shippingFlatFee = decimal.NewFromInt(10)

var taxRate = decimal.NewFromFloat(0.1)

// Store holds the cart state. Every mutation is written through to the
// configured Storage before it returns; a failed write keeps the in-memory
// state authoritative and is logged, never surfaced.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	storage Storage
	logger  *slog.Logger
}

// NewStore creates a cart rehydrated from storage. An unreadable or corrupt
// snapshot starts an empty cart.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	s := &Store{
		storage: storage,
		logger:  logger.With("component", "cart"),
	}
	lines, err := storage.Load()
	if err != nil {
		s.logger.Warn("Failed to load cart snapshot, starting empty", "error", err)
		return s
	}
	s.lines = lines
	return s
}

// Add puts one unit of the product into the cart. A product with no stock is
// rejected with ErrOutOfStock; an existing line at its frozen ceiling is
// rejected with ErrStockCeiling. Neither rejection mutates the cart.
func (s *Store) Add(product Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Stock <= 0 {
		return ErrOutOfStock
	}

	if i := s.find(product.ID); i >= 0 {
		if s.lines[i].Quantity >= s.lines[i].OriginalStock {
			return ErrStockCeiling
		}
		s.lines[i].Quantity++
		s.persist()
		return nil
	}

	s.lines = append(s.lines, Line{
		ProductID:     product.ID,
		Name:          product.Name,
		Price:         product.Price,
		Image:         product.Image,
		Quantity:      1,
		OriginalStock: product.Stock,
	})
	s.persist()
	return nil
}

// Decrement lowers the line's quantity by one, removing the line when it
// would reach zero. Unknown products are a no-op.
func (s *Store) Decrement(productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(productID)
	if i < 0 {
		return
	}
	if s.lines[i].Quantity > 1 {
		s.lines[i].Quantity--
	} else {
		s.removeAt(i)
	}
	s.persist()
}

// SetQuantity sets the line to exactly n. n <= 0 removes the line. An n above
// the frozen ceiling clamps to the ceiling, persists the clamped value and
// still reports ErrStockCeiling.
func (s *Store) SetQuantity(productID uuid.UUID, n int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(productID)
	if i < 0 {
		return nil
	}
	if n <= 0 {
		s.removeAt(i)
		s.persist()
		return nil
	}
	if n > s.lines[i].OriginalStock {
		s.lines[i].Quantity = s.lines[i].OriginalStock
		s.persist()
		return ErrStockCeiling
	}
	s.lines[i].Quantity = n
	s.persist()
	return nil
}

// Remove deletes the line unconditionally.
func (s *Store) Remove(productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.find(productID); i >= 0 {
		s.removeAt(i)
		s.persist()
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist()
}

// Find returns the line for the product, if present.
func (s *Store) Find(productID uuid.UUID) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.find(productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// Lines returns a copy of the cart's lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Subtotal is the sum of price x quantity over all lines.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotal()
}

// Shipping is a flat fee once the cart is non-empty.
func (s *Store) Shipping() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shipping(s.subtotal())
}

// Tax is a fixed percentage of the subtotal.
func (s *Store) Tax() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tax(s.subtotal())
}

// Total is subtotal + shipping + tax.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := s.subtotal()
	return subtotal.Add(shipping(subtotal)).Add(tax(subtotal))
}

func (s *Store) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	return sum
}

func shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsPositive() {
		return shippingFlatFee
	}
	return decimal.Zero
}

func tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate)
}

func (s *Store) find(productID uuid.UUID) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

// persist writes the full cart through to storage. Failures keep the
// in-memory state serving and are logged.
func (s *Store) persist() {
	if err := s.storage.Save(s.lines); err != nil {
		s.logger.Warn("Failed to persist cart snapshot, serving from memory", "error", err)
	}
}

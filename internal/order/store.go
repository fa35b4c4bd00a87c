package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is an interface for order storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// WithinTx runs fn inside a single database transaction. Everything fn
	// does through the TxStore commits or rolls back as one unit.
	WithinTx(ctx context.Context, fn func(tx TxStore) error) error

	// FindByID retrieves a single order with its lines.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, []Line, error)

	// FindOrdersByUserID returns a page of the user's orders, newest first,
	// lines eagerly attached, plus the user's total order count.
	FindOrdersByUserID(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]OrderWithLines, int64, error)
}

// TxStore is the transactional view handed to WithinTx closures.
type TxStore interface {
	// ProductsForUpdate loads the requested product rows and locks them for
	// the remainder of the transaction, serializing concurrent placements
	// that touch the same products.
	ProductsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// InsertOrder creates the order record and returns it.
	InsertOrder(ctx context.Context, userID uuid.UUID, status string, totalPrice decimal.Decimal) (*Order, error)

	// DecrementStock reduces a product's stock by the given quantity.
	DecrementStock(ctx context.Context, productID uuid.UUID, by int32) error

	// InsertLine attaches a line to an order.
	InsertLine(ctx context.Context, line Line) error
}

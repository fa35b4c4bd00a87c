// Package order implements order placement and order history.
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PageSize is the fixed page size for order history.
const PageSize = 15

// Order statuses. Placement always creates orders as StatusPending;
// the remaining transitions belong to the fulfilment workflow.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Order is the persisted order record. TotalPrice is fixed at creation
// and never recomputed.
type Order struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Status     string
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// Line is one order line. Price snapshots the product's unit price at
// purchase time, independent of later price changes. Immutable after creation.
type Line struct {
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Price       decimal.Decimal
	Quantity    int32
}

// OrderWithLines is an order with its lines eagerly attached.
type OrderWithLines struct {
	Order Order
	Lines []Line
}

// Product is the slice of the product row the placement transaction needs.
type Product struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
	Stock int32
}

// LineRequest is a single requested order line. A missing or non-positive
// quantity counts as 1.
type LineRequest struct {
	ProductID uuid.UUID `json:"id" validate:"required"`
	Quantity  int32     `json:"quantity" validate:"omitempty,min=1"`
}

// Package catalog provides read-only access to products and categories.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PageSize is the fixed page size for product listings.
const PageSize = 15

type Product struct {
	ID           uuid.UUID
	CategoryID   uuid.UUID
	CategoryName string
	Name         string
	Description  string
	Image        string
	Price        decimal.Decimal
	Quantity     int32
	CreatedAt    time.Time
}

type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Filter narrows a product listing. A price range applies only when both
// bounds are present; a lone bound is ignored.
type Filter struct {
	Search      string
	CategoryIDs []uuid.UUID
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
}

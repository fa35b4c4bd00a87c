package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Store is an interface for catalog read operations.
type Store interface {
	// FindProducts returns a page of products matching the filter, newest
	// first, category joined, plus the total match count.
	FindProducts(ctx context.Context, filter Filter, limit, offset int32) ([]Product, int64, error)

	// FindByID retrieves a single product with its category.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindCategories returns all categories.
	FindCategories(ctx context.Context) ([]Category, error)
}

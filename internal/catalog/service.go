package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService defines read-only catalog browsing operations.
type CatalogService interface {
	// FindProducts returns a page of products matching the filter.
	FindProducts(ctx context.Context, filter Filter, page int32) (*ProductPageDto, error)

	// FindProduct retrieves a single product with its category.
	FindProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// FindCategories returns all categories.
	FindCategories(ctx context.Context) ([]CategoryDto, error)
}

// Service implements CatalogService.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new catalog Service with the provided store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With("component", "catalog_service"),
	}
}

type ProductDto struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int32           `json:"quantity"`
	Category    CategoryDto     `json:"category"`
	CreatedAt   string          `json:"created_at"`
}

type CategoryDto struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductPageDto is one page of a filtered product listing.
type ProductPageDto struct {
	Products []ProductDto `json:"products"`
	Page     int32        `json:"page"`
	PerPage  int32        `json:"per_page"`
	Total    int64        `json:"total"`
}

// FindProducts returns the requested catalog page. A price range with only one
// bound set is dropped before it reaches the store.
func (s *Service) FindProducts(ctx context.Context, filter Filter, page int32) (*ProductPageDto, error) {
	if page < 1 {
		page = 1
	}
	// Both bounds or neither.
	if (filter.MinPrice == nil) != (filter.MaxPrice == nil) {
		filter.MinPrice = nil
		filter.MaxPrice = nil
	}

	products, total, err := s.store.FindProducts(ctx, filter, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}

	dtos := make([]ProductDto, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDto(&p))
	}
	return &ProductPageDto{
		Products: dtos,
		Page:     page,
		PerPage:  PageSize,
		Total:    total,
	}, nil
}

func (s *Service) FindProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toProductDto(p)
	return &dto, nil
}

func (s *Service) FindCategories(ctx context.Context) ([]CategoryDto, error) {
	categories, err := s.store.FindCategories(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]CategoryDto, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, CategoryDto{ID: c.ID, Name: c.Name})
	}
	return dtos, nil
}

func toProductDto(p *Product) ProductDto {
	return ProductDto{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Category:    CategoryDto{ID: p.CategoryID, Name: p.CategoryName},
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

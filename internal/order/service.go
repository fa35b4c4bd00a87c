package order

import (
	"context"
	"log/slog"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService defines the methods for managing orders.
// It abstracts the underlying business logic and data access.
type OrderService interface {
	// Create places a new order for the user as a single atomic unit.
	// Requested products without sufficient stock are dropped from the order.
	Create(ctx context.Context, userID uuid.UUID, requests []LineRequest) (*OrderDto, error)

	// FindUserOrders returns a page of the user's orders, newest first.
	// Results may lag reality by up to the history cache TTL.
	FindUserOrders(ctx context.Context, userID uuid.UUID, page int32) (*OrderPageDto, error)

	// FindByID retrieves a single order with its lines.
	// Returns ErrAccessDenied if the order belongs to another user.
	FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error)
}

// Service implements OrderService.
type Service struct {
	store     Store
	publisher messaging.Publisher
	history   *historyCache
	logger    *slog.Logger
}

// NewService creates a new order Service. historyTTL bounds how stale a cached
// order-history page may be.
func NewService(store Store, publisher messaging.Publisher, historyTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		history:   newHistoryCache(historyTTL),
		logger:    logger.With("component", "order_service"),
	}
}

// OrderDto represents the data transfer object for an order.
type OrderDto struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  string          `json:"created_at"`
	Lines      []OrderLineDto  `json:"lines,omitempty"`
}

type OrderLineDto struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `json:"quantity"`
}

// OrderPageDto is one page of a user's order history.
type OrderPageDto struct {
	Orders  []OrderDto `json:"orders"`
	Page    int32      `json:"page"`
	PerPage int32      `json:"per_page"`
	Total   int64      `json:"total"`
}

// Create places an order: availability filter, order insert, stock decrement
// and line attachment run in one transaction; the placed event is flushed only
// after the transaction commits.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, requests []LineRequest) (*OrderDto, error) {
	if len(requests) == 0 {
		return nil, ErrEmptyOrder
	}

	// Requested quantity per product, defaulting to 1. Duplicate ids collapse
	// to the last entry for filtering and decrementing.
	requested := make(map[uuid.UUID]int32, len(requests))
	var requestedTotal int64
	for _, r := range requests {
		qty := r.Quantity
		if qty < 1 {
			qty = 1
		}
		requested[r.ProductID] = qty
		requestedTotal += int64(qty)
	}
	ids := make([]uuid.UUID, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}

	var created *Order
	var lines []Line
	var postCommit []messaging.Event

	txErr := s.store.WithinTx(ctx, func(tx TxStore) error {
		products, err := tx.ProductsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		// Keep only products whose stock covers the requested quantity.
		// Products that fail the check are dropped from the order, not
		// rejected: the order is partially fulfilled.
		available := make([]Product, 0, len(products))
		priceSum := decimal.Zero
		for _, p := range products {
			if requested[p.ID] > p.Stock {
				s.logger.WarnContext(ctx, "Dropping unavailable product from order",
					"product_id", p.ID, "requested", requested[p.ID], "stock", p.Stock)
				continue
			}
			available = append(available, p)
			priceSum = priceSum.Add(p.Price)
		}

		// Total = sum of available unit prices x sum of ALL requested
		// quantities, including quantities of dropped lines. This matches the
		// historical billing behavior and is pinned by tests; do not change it
		// without a migration plan for existing clients.
		total := priceSum.Mul(decimal.NewFromInt(requestedTotal))

		created, err = tx.InsertOrder(ctx, userID, StatusPending, total)
		if err != nil {
			return err
		}

		for _, p := range available {
			qty := requested[p.ID]
			if err := tx.DecrementStock(ctx, p.ID, qty); err != nil {
				return err
			}
			line := Line{
				OrderID:     created.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Price:       p.Price,
				Quantity:    qty,
			}
			if err := tx.InsertLine(ctx, line); err != nil {
				return err
			}
			lines = append(lines, line)
		}

		// Queue the notification; it must only become observable once the
		// surrounding transaction has committed.
		postCommit = append(postCommit, events.OrderPlacedEvent{
			OrderID:    created.ID,
			UserID:     created.UserID,
			Status:     created.Status,
			TotalPrice: created.TotalPrice,
			CreatedAt:  created.CreatedAt,
		})
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	for _, event := range postCommit {
		if err := s.publisher.Publish(ctx, event); err != nil {
			// The order is committed; a lost notification is logged, not surfaced.
			s.logger.ErrorContext(ctx, "Failed to publish order placed event",
				"order_id", created.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "Order placed",
		"order_id", created.ID, "user_id", userID, "lines", len(lines))
	return toDto(created, lines), nil
}

// FindUserOrders returns the requested history page, serving from the TTL
// cache when a fresh entry exists.
func (s *Service) FindUserOrders(ctx context.Context, userID uuid.UUID, page int32) (*OrderPageDto, error) {
	if page < 1 {
		page = 1
	}
	key := historyKey{UserID: userID, Page: page}
	if cached, ok := s.history.Get(key); ok {
		return cached, nil
	}

	orders, total, err := s.store.FindOrdersByUserID(ctx, userID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}

	dtos := make([]OrderDto, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, *toDto(&o.Order, o.Lines))
	}
	result := &OrderPageDto{
		Orders:  dtos,
		Page:    page,
		PerPage: PageSize,
		Total:   total,
	}
	s.history.Set(key, result)
	return result, nil
}

// FindByID retrieves an order by its ID and returns it as an OrderDto.
// Returns ErrOrderNotFound if no order exists with the given ID.
func (s *Service) FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error) {
	o, lines, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrAccessDenied
	}
	return toDto(o, lines), nil
}

// toDto converts an Order and its lines to an OrderDto.
func toDto(o *Order, lines []Line) *OrderDto {
	if o == nil {
		return nil
	}

	var lineDtos []OrderLineDto
	if lines != nil {
		lineDtos = make([]OrderLineDto, 0, len(lines))
		for _, l := range lines {
			lineDtos = append(lineDtos, OrderLineDto{
				ProductID: l.ProductID,
				Name:      l.ProductName,
				Price:     l.Price,
				Quantity:  l.Quantity,
			})
		}
	}

	return &OrderDto{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
		Lines:      lineDtos,
	}
}

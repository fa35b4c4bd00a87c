package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is emitted once per committed order. Consumers handle it
// at-least-once; it is never published for rolled-back transactions.
type OrderPlacedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	UserID     uuid.UUID       `json:"user_id"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (o OrderPlacedEvent) Subject() string {
	return messaging.OrdersPlacedSubject
}

func (o OrderPlacedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

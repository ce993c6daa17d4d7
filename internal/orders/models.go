package orders

import "time"

type Order struct {
	ID         string
	UserID     int64
	Status     Status
	TotalCents int64
	Items      []OrderItem
	CreatedAt  time.Time
}

// OrderItem carries the unit price snapshot taken when the order was
// placed. It is never re-read from the product catalog afterwards.
type OrderItem struct {
	ProductID      int64
	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
}

type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type PlaceOrderRequest struct {
	UserID int64       `json:"user_id"`
	Items  []ItemInput `json:"items"`

	// TraceID is propagated into the event envelope; usually the inbound
	// request id.
	TraceID string `json:"-"`
}

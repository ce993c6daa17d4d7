package orders

import (
	"encoding/json"
	"time"
)

const EventOrderPlaced = "OrderPlaced"

// Envelope is the wire frame around every event. Payload evolution is
// additive only; consumers switch on EventType and EventVersion.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type EventItem struct {
	ProductID  int64 `json:"product_id"`
	Quantity   int   `json:"quantity"`
	PriceCents int64 `json:"price_cents"`
}

// OrderPlacedPayload is the sole coupling artifact between the order API
// and the downstream consumers.
type OrderPlacedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     int64       `json:"user_id"`
	Items      []EventItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

package payments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/acme/order-saga/internal/orders"
)

type Deduper interface {
	MarkHandled(ctx context.Context, service, eventID string) (bool, error)
}

// Consumer records a completed payment for every OrderPlaced event. The
// dedup guard keyed by event id keeps a redelivered event from producing
// a second payment row.
type Consumer struct {
	Store Store
	Dedup Deduper
	Log   *zap.Logger
}

func (c *Consumer) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.Log.Error("malformed event envelope", zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	first, err := c.Dedup.MarkHandled(ctx, orders.GroupPayment, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		c.Log.Info("duplicate OrderPlaced skipped", zap.String("event_id", env.EventID))
		return nil
	}

	var p orders.OrderPlacedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		c.Log.Error("malformed OrderPlaced payload",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	payment := Payment{
		ID:            uuid.NewString(),
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		AmountCents:   p.TotalCents,
		Status:        StatusCompleted,
		TransactionID: "TXN-" + uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := c.Store.CreatePayment(ctx, &payment); err != nil {
		c.Log.Error("create payment failed",
			zap.String("order_id", p.OrderID), zap.Error(err))
		return nil
	}
	c.Log.Info("payment recorded",
		zap.String("order_id", p.OrderID),
		zap.String("transaction_id", payment.TransactionID),
		zap.Int64("amount_cents", payment.AmountCents))
	return nil
}

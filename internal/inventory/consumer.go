package inventory

import (
	"context"
	"encoding/json"
	"errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/acme/order-saga/internal/apperr"
	"github.com/acme/order-saga/internal/orders"
)

// Deduper filters redelivered events. MarkHandled returns false when the
// event id has been seen before by this consumer group.
type Deduper interface {
	MarkHandled(ctx context.Context, service, eventID string) (bool, error)
}

// Consumer reserves stock for every line of an OrderPlaced event.
//
// Failures are absorbed, not escalated: a malformed payload or a line
// that loses the reservation race is logged and the message is still
// acknowledged. Lines reserved before a failing line stay reserved; lines
// after it are never attempted. The order API has already answered its
// caller, so there is nobody left to tell.
type Consumer struct {
	Store Store
	Dedup Deduper
	Log   *zap.Logger
}

// HandleOrderPlaced is mounted as the kafka consumer handler for the
// order-placed topic.
func (c *Consumer) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.Log.Error("malformed event envelope", zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	first, err := c.Dedup.MarkHandled(ctx, orders.GroupInventory, env.EventID)
	if err != nil {
		return err // redis down: leave the offset uncommitted and retry
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
	c.Log.Info("received OrderPlaced",
		zap.String("order_id", p.OrderID), zap.Int("lines", len(p.Items)))

	for _, it := range p.Items {
		if err := c.Store.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
			switch {
			case errors.Is(err, apperr.ErrInsufficientStock):
				c.Log.Warn("reservation lost the race; order stays unreserved",
					zap.String("order_id", p.OrderID),
					zap.Int64("product_id", it.ProductID),
					zap.Int("quantity", it.Quantity))
			case errors.Is(err, apperr.ErrNotFound):
				c.Log.Warn("no inventory record for product",
					zap.String("order_id", p.OrderID),
					zap.Int64("product_id", it.ProductID))
			default:
				c.Log.Error("reserve failed",
					zap.String("order_id", p.OrderID),
					zap.Int64("product_id", it.ProductID),
					zap.Error(err))
			}
			return nil
		}
		c.Log.Info("stock reserved",
			zap.String("order_id", p.OrderID),
			zap.Int64("product_id", it.ProductID),
			zap.Int("quantity", it.Quantity))
	}
	return nil
}

package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/acme/order-saga/internal/apperr"
	"github.com/acme/order-saga/internal/clients"
)

// StockChecker is the read-only stock probe used during validation. It is
// advisory: the real reservation happens later in the inventory consumer,
// so two orders can both pass the check for the last unit and only one
// will win at reserve time.
type StockChecker interface {
	Check(ctx context.Context, productID int64, qty int) (bool, error)
}

// Publisher is fire-and-forget; publish errors never reach the caller.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store    Store
	Users    clients.Users
	Products clients.Products
	Stock    StockChecker
	Producer Publisher
	Log      *zap.Logger
	Name     string // producer identity stamped into event envelopes
}

// PlaceOrder validates the request against the user, catalog and inventory
// state, persists the order with status PENDING, and publishes one
// OrderPlaced event. Validation failures abort before any durable write.
// A failed publish is logged and swallowed: the order stays persisted with
// no event ever sent.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (Order, error) {
	if req.UserID <= 0 {
		return Order{}, apperr.Validationf("user id is required")
	}
	if len(req.Items) == 0 {
		return Order{}, apperr.Validationf("items are required")
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return Order{}, apperr.Validationf("invalid quantity for product: %d", it.ProductID)
		}
	}

	if _, err := s.Users.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Order{}, apperr.NotFoundf("user not found with id: %d", req.UserID)
		}
		return Order{}, err
	}

	var (
		items      = make([]OrderItem, 0, len(req.Items))
		totalCents int64
	)
	for _, it := range req.Items {
		p, err := s.Products.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return Order{}, apperr.Validationf("product not found or inactive: %d", it.ProductID)
			}
			return Order{}, err
		}
		if !p.Active {
			return Order{}, apperr.Validationf("product not found or inactive: %d", it.ProductID)
		}

		inStock, err := s.Stock.Check(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return Order{}, err
		}
		if !inStock {
			return Order{}, apperr.Validationf("insufficient stock for product: %d", it.ProductID)
		}

		subtotal := p.PriceCents * int64(it.Quantity)
		totalCents += subtotal
		items = append(items, OrderItem{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
			SubtotalCents:  subtotal,
		})
	}

	order := Order{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Status:     StatusPending,
		TotalCents: totalCents,
		Items:      items,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Store.CreateOrder(ctx, &order); err != nil {
		return Order{}, err
	}

	s.publishOrderPlaced(order, req.TraceID)
	return order, nil
}

func (s *Service) publishOrderPlaced(o Order, traceID string) {
	evItems := make([]EventItem, 0, len(o.Items))
	for _, it := range o.Items {
		evItems = append(evItems, EventItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PriceCents: it.UnitPriceCents,
		})
	}
	payload, err := json.Marshal(OrderPlacedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      evItems,
		TotalCents: o.TotalCents,
	})
	if err != nil {
		s.Log.Error("marshal OrderPlaced payload", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Name,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload:       payload,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		s.Log.Error("marshal OrderPlaced envelope", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	s.Producer.Publish(PartitionKey(o.ID), value,
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	s.Log.Info("published OrderPlaced", zap.String("order_id", o.ID))
}

func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return s.Store.ListByUser(ctx, userID)
}

package orders_test

import (
	"context"
	"strings"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acme/order-saga/internal/apperr"
	"github.com/acme/order-saga/internal/clients"
	"github.com/acme/order-saga/internal/inventory"
	"github.com/acme/order-saga/internal/orders"
	"github.com/acme/order-saga/internal/payments"
)

// The whole choreography in one process: place an order, hand the
// published message to both consumers, check stock and payment state.

type sagaUsers struct{}

func (sagaUsers) GetUser(_ context.Context, id int64) (clients.User, error) {
	if id != 1 {
		return clients.User{}, apperr.NotFoundf("user not found with id: %d", id)
	}
	return clients.User{ID: 1, Active: true}, nil
}

type sagaProducts struct{}

func (sagaProducts) GetProduct(_ context.Context, id int64) (clients.Product, error) {
	if id != 10 && id != 20 {
		return clients.Product{}, apperr.NotFoundf("product not found with id: %d", id)
	}
	return clients.Product{ID: id, PriceCents: 999, Active: true}, nil
}

type sagaOrderStore struct{ orders map[string]orders.Order }

func (s *sagaOrderStore) CreateOrder(_ context.Context, o *orders.Order) error {
	if s.orders == nil {
		s.orders = make(map[string]orders.Order)
	}
	s.orders[o.ID] = *o
	return nil
}

func (s *sagaOrderStore) GetOrder(_ context.Context, id string) (orders.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, apperr.NotFoundf("order not found with id: %s", id)
	}
	return o, nil
}

func (s *sagaOrderStore) ListByUser(_ context.Context, _ int64) ([]orders.Order, error) {
	return nil, nil
}

type capturePublisher struct{ messages []kafkago.Message }

func (p *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.messages = append(p.messages, kafkago.Message{Key: key, Value: value, Headers: headers})
}

type sagaPaymentStore struct{ payments []payments.Payment }

func (s *sagaPaymentStore) CreatePayment(_ context.Context, p *payments.Payment) error {
	s.payments = append(s.payments, *p)
	return nil
}

func (s *sagaPaymentStore) GetPayment(_ context.Context, id string) (payments.Payment, error) {
	return payments.Payment{}, apperr.NotFoundf("payment not found with id: %s", id)
}

func (s *sagaPaymentStore) ListByOrder(_ context.Context, _ string) ([]payments.Payment, error) {
	return nil, nil
}

func (s *sagaPaymentStore) ListByUser(_ context.Context, _ int64) ([]payments.Payment, error) {
	return nil, nil
}

type sagaDedup struct{ seen map[string]bool }

func (d *sagaDedup) MarkHandled(_ context.Context, service, eventID string) (bool, error) {
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	k := service + ":" + eventID
	if d.seen[k] {
		return false, nil
	}
	d.seen[k] = true
	return true, nil
}

func TestSagaHappyPath(t *testing.T) {
	ctx := context.Background()

	stock := inventory.NewMemStore()
	_, err := stock.Upsert(ctx, 10, 5)
	require.NoError(t, err)

	pub := &capturePublisher{}
	svc := &orders.Service{
		Store:    &sagaOrderStore{},
		Users:    sagaUsers{},
		Products: sagaProducts{},
		Stock:    stock,
		Producer: pub,
		Log:      zap.NewNop(),
		Name:     "order-api",
	}

	order, err := svc.PlaceOrder(ctx, orders.PlaceOrderRequest{
		UserID: 1,
		Items:  []orders.ItemInput{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, order.Status)
	assert.Equal(t, int64(1998), order.TotalCents)
	require.Len(t, pub.messages, 1)

	invConsumer := &inventory.Consumer{Store: stock, Dedup: &sagaDedup{}, Log: zap.NewNop()}
	payStore := &sagaPaymentStore{}
	payConsumer := &payments.Consumer{Store: payStore, Dedup: &sagaDedup{}, Log: zap.NewNop()}

	// independent fan-out: each consumer group gets the same message
	require.NoError(t, invConsumer.HandleOrderPlaced(ctx, pub.messages[0]))
	require.NoError(t, payConsumer.HandleOrderPlaced(ctx, pub.messages[0]))

	rec, err := stock.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Reserved)
	assert.Equal(t, 3, rec.Available)

	require.Len(t, payStore.payments, 1)
	assert.Equal(t, order.ID, payStore.payments[0].OrderID)
	assert.Equal(t, int64(1998), payStore.payments[0].AmountCents)
	assert.Equal(t, payments.StatusCompleted, payStore.payments[0].Status)
	assert.True(t, strings.HasPrefix(payStore.payments[0].TransactionID, "TXN-"))
}

// Both orders pass the advisory check for the last unit; the reservation
// engine lets only one through and the loser is dropped silently. The
// synchronous callers of both orders have already seen success.
func TestSagaAdvisoryCheckRace(t *testing.T) {
	ctx := context.Background()

	stock := inventory.NewMemStore()
	_, err := stock.Upsert(ctx, 20, 3)
	require.NoError(t, err)
	require.NoError(t, stock.Reserve(ctx, 20, 2)) // available = 1

	pub := &capturePublisher{}
	store := &sagaOrderStore{}
	svc := &orders.Service{
		Store:    store,
		Users:    sagaUsers{},
		Products: sagaProducts{},
		Stock:    stock,
		Producer: pub,
		Log:      zap.NewNop(),
		Name:     "order-api",
	}

	req := orders.PlaceOrderRequest{
		UserID: 1,
		Items:  []orders.ItemInput{{ProductID: 20, Quantity: 1}},
	}

	// both orders validate before either reservation runs
	first, err := svc.PlaceOrder(ctx, req)
	require.NoError(t, err)
	second, err := svc.PlaceOrder(ctx, req)
	require.NoError(t, err, "advisory check passes again; reservation has not happened yet")
	require.Len(t, pub.messages, 2)

	invConsumer := &inventory.Consumer{Store: stock, Dedup: &sagaDedup{}, Log: zap.NewNop()}
	require.NoError(t, invConsumer.HandleOrderPlaced(ctx, pub.messages[0]))
	require.NoError(t, invConsumer.HandleOrderPlaced(ctx, pub.messages[1]))

	rec, err := stock.Get(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Reserved, "only one reservation fits")
	assert.Equal(t, 0, rec.Available)

	// both orders stay persisted and PENDING; one is permanently unreserved
	assert.Len(t, store.orders, 2)
	for _, id := range []string{first.ID, second.ID} {
		o, err := store.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPending, o.Status)
	}
}

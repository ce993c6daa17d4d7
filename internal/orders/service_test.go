package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acme/order-saga/internal/apperr"
	"github.com/acme/order-saga/internal/clients"
)

type fakeUsers struct{ users map[int64]clients.User }

func (f *fakeUsers) GetUser(_ context.Context, id int64) (clients.User, error) {
	u, ok := f.users[id]
	if !ok {
		return clients.User{}, apperr.NotFoundf("user not found with id: %d", id)
	}
	return u, nil
}

type fakeProducts struct{ products map[int64]clients.Product }

func (f *fakeProducts) GetProduct(_ context.Context, id int64) (clients.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return clients.Product{}, apperr.NotFoundf("product not found with id: %d", id)
	}
	return p, nil
}

type fakeStock struct{ available map[int64]int }

func (f *fakeStock) Check(_ context.Context, productID int64, qty int) (bool, error) {
	return f.available[productID] >= qty, nil
}

type memOrderStore struct {
	orders  map[string]Order
	failing bool
}

func (m *memOrderStore) CreateOrder(_ context.Context, o *Order) error {
	if m.failing {
		return errors.New("db gone")
	}
	if m.orders == nil {
		m.orders = make(map[string]Order)
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrderStore) GetOrder(_ context.Context, id string) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, apperr.NotFoundf("order not found with id: %s", id)
	}
	return o, nil
}

func (m *memOrderStore) ListByUser(_ context.Context, userID int64) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type capturedPublish struct {
	key   []byte
	value []byte
}

type fakePublisher struct{ published []capturedPublish }

func (f *fakePublisher) Publish(key, value []byte, _ ...kafkago.Header) {
	f.published = append(f.published, capturedPublish{key: key, value: value})
}

type fixture struct {
	svc   *Service
	store *memOrderStore
	pub   *fakePublisher
}

func newFixture() *fixture {
	store := &memOrderStore{}
	pub := &fakePublisher{}
	svc := &Service{
		Store:    store,
		Users:    &fakeUsers{users: map[int64]clients.User{1: {ID: 1, Active: true}}},
		Products: &fakeProducts{products: map[int64]clients.Product{10: {ID: 10, PriceCents: 999, Active: true}}},
		Stock:    &fakeStock{available: map[int64]int{10: 5}},
		Producer: pub,
		Log:      zap.NewNop(),
		Name:     "order-api",
	}
	return &fixture{svc: svc, store: store, pub: pub}
}

func TestPlaceOrderSuccess(t *testing.T) {
	f := newFixture()

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 1,
		Items:  []ItemInput{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, int64(1998), order.TotalCents)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(999), order.Items[0].UnitPriceCents)
	assert.Equal(t, int64(1998), order.Items[0].SubtotalCents)
	assert.False(t, order.CreatedAt.IsZero())

	// persisted
	assert.Contains(t, f.store.orders, order.ID)

	// one event, keyed by order id, payload mirrors the persisted order
	require.Len(t, f.pub.published, 1)
	assert.Equal(t, []byte(order.ID), f.pub.published[0].key)

	var env Envelope
	require.NoError(t, json.Unmarshal(f.pub.published[0].value, &env))
	assert.Equal(t, EventOrderPlaced, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, order.ID, env.CorrelationID)

	var p OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, order.ID, p.OrderID)
	assert.Equal(t, int64(1), p.UserID)
	assert.Equal(t, int64(1998), p.TotalCents)
	require.Len(t, p.Items, 1)
	assert.Equal(t, int64(10), p.Items[0].ProductID)
	assert.Equal(t, 2, p.Items[0].Quantity)
	assert.Equal(t, int64(999), p.Items[0].PriceCents)
}

func TestPlaceOrderUnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 42,
		Items:  []ItemInput{{ProductID: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.pub.published)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 1,
		Items:  []ItemInput{{ProductID: 77, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "product not found or inactive: 77")
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.pub.published)
}

func TestPlaceOrderInactiveProduct(t *testing.T) {
	f := newFixture()
	f.svc.Products = &fakeProducts{products: map[int64]clients.Product{
		10: {ID: 10, PriceCents: 999, Active: false},
	}}

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 1,
		Items:  []ItemInput{{ProductID: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, f.store.orders)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newFixture()
	f.svc.Stock = &fakeStock{available: map[int64]int{10: 0}}

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 1,
		Items:  []ItemInput{{ProductID: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "insufficient stock for product: 10")
	assert.Empty(t, f.store.orders, "no order is created")
	assert.Empty(t, f.pub.published, "no event is published")
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"missing user", PlaceOrderRequest{Items: []ItemInput{{ProductID: 10, Quantity: 1}}}},
		{"no items", PlaceOrderRequest{UserID: 1}},
		{"zero quantity", PlaceOrderRequest{UserID: 1, Items: []ItemInput{{ProductID: 10, Quantity: 0}}}},
		{"negative quantity", PlaceOrderRequest{UserID: 1, Items: []ItemInput{{ProductID: 10, Quantity: -2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(ctx, tt.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.pub.published)
}

func TestPlaceOrderMultiLineTotal(t *testing.T) {
	f := newFixture()
	f.svc.Products = &fakeProducts{products: map[int64]clients.Product{
		10: {ID: 10, PriceCents: 999, Active: true},
		11: {ID: 11, PriceCents: 250, Active: true},
	}}
	f.svc.Stock = &fakeStock{available: map[int64]int{10: 5, 11: 5}}

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 1,
		Items: []ItemInput{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1998+750), order.TotalCents)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(750), order.Items[1].SubtotalCents)
}

func TestPlaceOrderPersistFailure(t *testing.T) {
	f := newFixture()
	f.store.failing = true

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 1,
		Items:  []ItemInput{{ProductID: 10, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Empty(t, f.pub.published, "no event when the write failed")
}

package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/acme/order-saga/internal/orders"
	"github.com/acme/order-saga/internal/redisx"
)

type OrdersHandler struct {
	Svc   *orders.Service
	Redis *redis.Client
	Log   *zap.Logger
}

type OrderItemView struct {
	ProductID      int64 `json:"product_id"`
	Quantity       int   `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
	SubtotalCents  int64 `json:"subtotal_cents"`
}

type OrderView struct {
	ID         string          `json:"id"`
	UserID     int64           `json:"user_id"`
	Status     string          `json:"status"`
	TotalCents int64           `json:"total_cents"`
	Items      []OrderItemView `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/users/{id}/orders", h.listByUser)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid json")
		return
	}
	req.TraceID = middleware.GetReqID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Svc.PlaceOrder(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := toOrderView(order)
	h.cacheOrder(ctx, view)
	writeJSON(w, http.StatusCreated, view)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB stays the source of truth
	key := redisx.Key(redisx.KeyOrderView, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	order, err := h.Svc.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := toOrderView(order)
	h.cacheOrder(ctx, view)
	writeJSON(w, http.StatusOK, view)
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, r, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Svc.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]OrderView, 0, len(list))
	for _, o := range list {
		views = append(views, toOrderView(o))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, view OrderView) {
	b, err := json.Marshal(view)
	if err != nil {
		return
	}
	key := redisx.Key(redisx.KeyOrderView, view.ID)
	if err := h.Redis.Set(ctx, key, b, redisx.TTLOrderView).Err(); err != nil {
		h.Log.Warn("order view cache set failed", zap.String("order_id", view.ID), zap.Error(err))
	}
}

func toOrderView(o orders.Order) OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemView{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  it.SubtotalCents,
		})
	}
	return OrderView{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		TotalCents: o.TotalCents,
		Items:      items,
		CreatedAt:  o.CreatedAt,
	}
}

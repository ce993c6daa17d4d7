package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acme/order-saga/internal/payments"
)

type PaymentsHandler struct {
	Store payments.Store
}

type PaymentView struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	UserID        int64     `json:"user_id"`
	AmountCents   int64     `json:"amount_cents"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Get("/payments/{id}", h.get)
	r.Get("/payments/order/{orderId}", h.listByOrder)
	r.Get("/payments/user/{userId}", h.listByUser)
}

func (h *PaymentsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.GetPayment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentView(p))
}

func (h *PaymentsHandler) listByOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListByOrder(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentViews(list))
}

func (h *PaymentsHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		badRequest(w, r, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentViews(list))
}

func toPaymentView(p payments.Payment) PaymentView {
	return PaymentView{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		AmountCents:   p.AmountCents,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}

func toPaymentViews(list []payments.Payment) []PaymentView {
	out := make([]PaymentView, 0, len(list))
	for _, p := range list {
		out = append(out, toPaymentView(p))
	}
	return out
}

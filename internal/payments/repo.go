package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acme/order-saga/internal/apperr"
)

type Store interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]Payment, error)
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) CreatePayment(ctx context.Context, p *Payment) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO payments(id, order_id, user_id, amount_cents, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrderID, p.UserID, p.AmountCents, string(p.Status), p.TransactionID, p.CreatedAt,
	)
	return err
}

func (r *Repo) GetPayment(ctx context.Context, id string) (Payment, error) {
	var p Payment
	var status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, user_id, amount_cents, status, transaction_id, created_at
		FROM payments WHERE id=$1`, id,
	).Scan(&p.ID, &p.OrderID, &p.UserID, &p.AmountCents, &status, &p.TransactionID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, apperr.NotFoundf("payment not found with id: %s", id)
	}
	if err != nil {
		return Payment{}, err
	}
	p.Status = Status(status)
	return p, nil
}

func (r *Repo) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	return r.list(ctx, `
		SELECT id, order_id, user_id, amount_cents, status, transaction_id, created_at
		FROM payments WHERE order_id=$1 ORDER BY created_at`, orderID)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Payment, error) {
	return r.list(ctx, `
		SELECT id, order_id, user_id, amount_cents, status, transaction_id, created_at
		FROM payments WHERE user_id=$1 ORDER BY created_at`, userID)
}

func (r *Repo) list(ctx context.Context, query string, arg any) ([]Payment, error) {
	rows, err := r.DB.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var status string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.UserID, &p.AmountCents, &status, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Status = Status(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

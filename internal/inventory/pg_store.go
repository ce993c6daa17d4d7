package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acme/order-saga/internal/apperr"
)

// PgStore keeps the counters in Postgres. All mutation funnels through
// single conditional statements, so the row lock is the serialization
// point for concurrent reservations on the same product.
type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) Upsert(ctx context.Context, productID int64, quantity int) (Record, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
		INSERT INTO inventory(product_id, quantity, reserved)
		VALUES ($1, $2, 0)
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = GREATEST(EXCLUDED.quantity, inventory.reserved)
		RETURNING product_id, quantity, reserved`,
		productID, quantity,
	).Scan(&rec.ProductID, &rec.Quantity, &rec.Reserved)
	if err != nil {
		return Record{}, err
	}
	rec.Available = rec.Quantity - rec.Reserved
	return rec, nil
}

func (s *PgStore) Get(ctx context.Context, productID int64) (Record, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
		SELECT product_id, quantity, reserved FROM inventory WHERE product_id=$1`,
		productID,
	).Scan(&rec.ProductID, &rec.Quantity, &rec.Reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, apperr.NotFoundf("inventory not found for product: %d", productID)
	}
	if err != nil {
		return Record{}, err
	}
	rec.Available = rec.Quantity - rec.Reserved
	return rec, nil
}

func (s *PgStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT product_id, quantity, reserved FROM inventory ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ProductID, &rec.Quantity, &rec.Reserved); err != nil {
			return nil, err
		}
		rec.Available = rec.Quantity - rec.Reserved
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PgStore) Check(ctx context.Context, productID int64, qty int) (bool, error) {
	rec, err := s.Get(ctx, productID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Available >= qty, nil
}

func (s *PgStore) Reserve(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.Validationf("invalid reserve quantity: %d", qty)
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE inventory SET reserved = reserved + $2
		WHERE product_id = $1 AND quantity - reserved >= $2`,
		productID, qty,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	// nothing updated: distinguish a missing record from an over-ask
	if _, err := s.Get(ctx, productID); err != nil {
		return err
	}
	return apperr.ErrInsufficientStock
}

func (s *PgStore) Release(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.Validationf("invalid release quantity: %d", qty)
	}
	_, err := s.DB.Exec(ctx, `
		UPDATE inventory SET reserved = GREATEST(0, reserved - $2)
		WHERE product_id = $1`,
		productID, qty,
	)
	return err
}

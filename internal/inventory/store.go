// Package inventory owns the per-product stock counters and the
// reservation engine. The central invariant: reserved never exceeds
// quantity, so available = quantity - reserved is never negative.
package inventory

import "context"

type Record struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Reserved  int   `json:"reserved"`
	Available int   `json:"available"`
}

// Store is the reservation engine. Reserve must be linearizable per
// product key: the read-check-increment sequence executes as one isolated
// unit, so concurrent reservations against the same product can never
// both succeed when only one fits.
type Store interface {
	// Upsert creates the record (reserved=0) or overwrites quantity on an
	// existing one; reserved is untouched. Writes are not additive. A
	// quantity below the current reserved count is clamped up to reserved
	// so available can never go negative.
	Upsert(ctx context.Context, productID int64, quantity int) (Record, error)

	Get(ctx context.Context, productID int64) (Record, error)
	List(ctx context.Context) ([]Record, error)

	// Check reports quantity-reserved >= qty. A missing record is false,
	// not an error.
	Check(ctx context.Context, productID int64, qty int) (bool, error)

	// Reserve atomically increments reserved by qty. Fails with
	// apperr.ErrInsufficientStock when available < qty, with
	// apperr.ErrNotFound when no record exists, and with
	// apperr.ErrValidation when qty <= 0.
	Reserve(ctx context.Context, productID int64, qty int) error

	// Release decrements reserved by qty, floored at zero. A missing
	// record is a no-op; qty <= 0 fails with apperr.ErrValidation.
	Release(ctx context.Context, productID int64, qty int) error
}

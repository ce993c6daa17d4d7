package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/acme/order-saga/internal/apperr"
)

// MemStore keeps the counters in memory behind one mutex. It backs the
// tests and the dev mode; the mutex makes every operation linearizable
// across all keys, which is stricter than the per-key guarantee Store
// demands.
type MemStore struct {
	mu   sync.Mutex
	recs map[int64]*Record
}

func NewMemStore() *MemStore {
	return &MemStore{recs: make(map[int64]*Record)}
}

func (s *MemStore) Upsert(_ context.Context, productID int64, quantity int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[productID]
	if !ok {
		rec = &Record{ProductID: productID}
		s.recs[productID] = rec
	}
	if quantity < rec.Reserved {
		quantity = rec.Reserved
	}
	rec.Quantity = quantity
	return s.view(rec), nil
}

func (s *MemStore) Get(_ context.Context, productID int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[productID]
	if !ok {
		return Record{}, apperr.NotFoundf("inventory not found for product: %d", productID)
	}
	return s.view(rec), nil
}

func (s *MemStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, s.view(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *MemStore) Check(_ context.Context, productID int64, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[productID]
	if !ok {
		return false, nil
	}
	return rec.Quantity-rec.Reserved >= qty, nil
}

func (s *MemStore) Reserve(_ context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.Validationf("invalid reserve quantity: %d", qty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[productID]
	if !ok {
		return apperr.NotFoundf("inventory not found for product: %d", productID)
	}
	if rec.Quantity-rec.Reserved < qty {
		return apperr.ErrInsufficientStock
	}
	rec.Reserved += qty
	return nil
}

func (s *MemStore) Release(_ context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.Validationf("invalid release quantity: %d", qty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[productID]
	if !ok {
		return nil
	}
	rec.Reserved -= qty
	if rec.Reserved < 0 {
		rec.Reserved = 0
	}
	return nil
}

func (s *MemStore) view(rec *Record) Record {
	out := *rec
	out.Available = out.Quantity - out.Reserved
	return out
}

package orders

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is an in-process ledger for local/dev use.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Order
	byCustomer map[string][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[string]Order),
		byCustomer: make(map[string][]string),
	}
}

func (s *InMemoryStore) Save(_ context.Context, order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.Lines = append([]Line(nil), order.Lines...)
	if _, exists := s.byID[order.ID]; !exists && order.CustomerID != "" {
		s.byCustomer[order.CustomerID] = append(s.byCustomer[order.CustomerID], order.ID)
	}
	s.byID[order.ID] = order
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, orderID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// ListByCustomer returns the newest orders first.
func (s *InMemoryStore) ListByCustomer(_ context.Context, customerID string, limit int) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byCustomer[customerID]
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}
	out := make([]Order, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.byID[ids[i]])
	}
	return out, nil
}

func (s *InMemoryStore) PointsCredited(_ context.Context, customerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, id := range s.byCustomer[customerID] {
		total += s.byID[id].PointsEarned
	}
	return total, nil
}

func (s *InMemoryStore) Close() error { return nil }

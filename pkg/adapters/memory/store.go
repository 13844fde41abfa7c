package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/reliant/configurator/pkg/domain"
)

// Store implements ports.FlowStore and ports.CartStore in memory.
// Safe for concurrent use.
type Store struct {
	flows map[string]*domain.Flow
	carts map[string]*domain.Cart
	mu    sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		flows: make(map[string]*domain.Flow),
		carts: make(map[string]*domain.Cart),
	}
}

// Save persists a copy of the flow.
func (s *Store) Save(ctx context.Context, sessionID string, flow *domain.Flow) error {
	copied := flow.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[sessionID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored flow through the pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.flows[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return flow.Clone(), nil
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, sessionID)
	return nil
}

// List returns all active session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.flows))
	for id := range s.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveCart persists a copy of the cart.
func (s *Store) SaveCart(ctx context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.ID] = copyCart(cart)
	return nil
}

// LoadCart returns a copy of the cart.
func (s *Store) LoadCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return copyCart(cart), nil
}

// DeleteCart removes the cart.
func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}

func copyCart(c *domain.Cart) *domain.Cart {
	copied := *c
	copied.Items = append([]domain.ConfiguredProduct(nil), c.Items...)
	return &copied
}

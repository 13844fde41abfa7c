package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reliant/configurator/pkg/domain"
)

// QuotationStore implements ports.QuotationStore in memory.
type QuotationStore struct {
	mu         sync.RWMutex
	customers  map[string]domain.Customer
	quotations map[string]*domain.Quotation
	items      map[string]string // item id -> quotation id
	now        func() time.Time
}

// NewQuotationStore creates an empty quotation store.
func NewQuotationStore() *QuotationStore {
	return &QuotationStore{
		customers:  make(map[string]domain.Customer),
		quotations: make(map[string]*domain.Quotation),
		items:      make(map[string]string),
		now:        time.Now,
	}
}

func (s *QuotationStore) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer.ID = uuid.NewString()
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *QuotationStore) CreateQuotation(ctx context.Context, customerID string) (*domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("unknown customer %s", customerID)
	}
	q := &domain.Quotation{
		ID:       uuid.NewString(),
		Customer: customer,
		Pincode:  customer.Postcode,
		Items:    []domain.QuotationItem{},
		Created:  s.now(),
	}
	s.quotations[q.ID] = q
	return copyQuotation(q), nil
}

func (s *QuotationStore) CreateQuotationItem(ctx context.Context, item domain.QuotationItem) (*domain.QuotationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotations[item.Quotation]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuotationNotFound, item.Quotation)
	}
	item.ID = uuid.NewString()
	item.ProductDetails = maps.Clone(item.ProductDetails)
	q.Items = append(q.Items, item)
	s.items[item.ID] = q.ID
	return &item, nil
}

func (s *QuotationStore) GetQuotation(ctx context.Context, id string) (*domain.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuotationNotFound, id)
	}
	return copyQuotation(q), nil
}

// ListQuotations returns quotations newest first.
func (s *QuotationStore) ListQuotations(ctx context.Context) ([]domain.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quotation, 0, len(s.quotations))
	for _, q := range s.quotations {
		out = append(out, *copyQuotation(q))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.After(out[j].Created)
	})
	return out, nil
}

func (s *QuotationStore) UpdateItemPrice(ctx context.Context, itemID string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	qid, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("%w: item %s", domain.ErrQuotationNotFound, itemID)
	}
	q := s.quotations[qid]
	for i := range q.Items {
		if q.Items[i].ID == itemID {
			q.Items[i].Price = price
		}
	}
	return nil
}

func copyQuotation(q *domain.Quotation) *domain.Quotation {
	copied := *q
	copied.Items = make([]domain.QuotationItem, len(q.Items))
	for i, it := range q.Items {
		it.ProductDetails = maps.Clone(it.ProductDetails)
		copied.Items[i] = it
	}
	return &copied
}

package pocketbase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/reliant/configurator/pkg/domain"
)

type customerRecord struct {
	ID        string `pb:"id"`
	FirstName string `pb:"first_name"`
	LastName  string `pb:"last_name"`
	Email     string `pb:"email"`
	Phone     string `pb:"phone"`
	Postcode  string `pb:"postcode"`
}

type quotationRecord struct {
	ID       string    `pb:"id"`
	Customer string    `pb:"customer"`
	Pincode  string    `pb:"pincode"`
	Created  time.Time `pb:"created"`
	Expand   struct {
		Customer customerRecord `pb:"customer"`
	} `pb:"expand"`
}

type itemRecord struct {
	ID             string         `pb:"id"`
	Quotation      string         `pb:"quotation"`
	Product        string         `pb:"product"`
	ProductDetails map[string]any `pb:"product_details"`
	Quantity       int            `pb:"quantity"`
	Price          float64        `pb:"price"`
}

// QuotationStore implements ports.QuotationStore over the customers,
// quotations and quotation_items collections.
type QuotationStore struct {
	client *Client
}

// NewQuotationStore creates a quotation store backed by client.
func NewQuotationStore(client *Client) *QuotationStore {
	return &QuotationStore{client: client}
}

func (s *QuotationStore) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	body := map[string]any{
		"first_name": customer.FirstName,
		"last_name":  customer.LastName,
		"email":      customer.Email,
		"phone":      customer.Phone,
	}
	if customer.Postcode != "" {
		body["postcode"] = customer.Postcode
	}
	var rec customerRecord
	if err := s.client.create(ctx, CollectionCustomers, body, &rec); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	c := toCustomer(rec)
	return &c, nil
}

func (s *QuotationStore) CreateQuotation(ctx context.Context, customerID string) (*domain.Quotation, error) {
	var rec quotationRecord
	if err := s.client.create(ctx, CollectionQuotations, map[string]any{"customer": customerID}, &rec); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}
	return s.GetQuotation(ctx, rec.ID)
}

func (s *QuotationStore) CreateQuotationItem(ctx context.Context, item domain.QuotationItem) (*domain.QuotationItem, error) {
	body := map[string]any{
		"quotation":       item.Quotation,
		"product":         item.Product,
		"product_details": item.ProductDetails,
		"quantity":        item.Quantity,
	}
	var rec itemRecord
	if err := s.client.create(ctx, CollectionQuotationItems, body, &rec); err != nil {
		return nil, fmt.Errorf("failed to create quotation item: %w", err)
	}
	out := domain.QuotationItem(rec)
	return &out, nil
}

func (s *QuotationStore) GetQuotation(ctx context.Context, id string) (*domain.Quotation, error) {
	var rec quotationRecord
	err := s.client.getOne(ctx, CollectionQuotations, id, url.Values{"expand": {"customer"}}, &rec)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrQuotationNotFound, id)
		}
		return nil, fmt.Errorf("failed to load quotation %s: %w", id, err)
	}
	items, err := s.items(ctx, url.Values{"filter": {idFilter("quotation", []string{id})}})
	if err != nil {
		return nil, err
	}
	q := toQuotation(rec, items[id])
	return &q, nil
}

// ListQuotations returns quotations newest first.
func (s *QuotationStore) ListQuotations(ctx context.Context) ([]domain.Quotation, error) {
	raw, err := s.client.fullList(ctx, CollectionQuotations, url.Values{
		"sort":   {"-created"},
		"expand": {"customer"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}
	items, err := s.items(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quotation, 0, len(raw))
	for _, r := range raw {
		var rec quotationRecord
		if err := decode(r, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode quotation: %w", err)
		}
		out = append(out, toQuotation(rec, items[rec.ID]))
	}
	return out, nil
}

func (s *QuotationStore) UpdateItemPrice(ctx context.Context, itemID string, price float64) error {
	if err := s.client.update(ctx, CollectionQuotationItems, itemID, map[string]any{"price": price}); err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("%w: item %s", domain.ErrQuotationNotFound, itemID)
		}
		return fmt.Errorf("failed to update price of %s: %w", itemID, err)
	}
	return nil
}

// items loads quotation items grouped by quotation id.
func (s *QuotationStore) items(ctx context.Context, query url.Values) (map[string][]domain.QuotationItem, error) {
	q := url.Values{"sort": {"created"}}
	for k, v := range query {
		q[k] = v
	}
	raw, err := s.client.fullList(ctx, CollectionQuotationItems, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotation items: %w", err)
	}
	grouped := make(map[string][]domain.QuotationItem)
	for _, r := range raw {
		var rec itemRecord
		if err := decode(r, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode quotation item: %w", err)
		}
		grouped[rec.Quotation] = append(grouped[rec.Quotation], domain.QuotationItem(rec))
	}
	return grouped, nil
}

func toCustomer(rec customerRecord) domain.Customer {
	return domain.Customer(rec)
}

func toQuotation(rec quotationRecord, items []domain.QuotationItem) domain.Quotation {
	if items == nil {
		items = []domain.QuotationItem{}
	}
	return domain.Quotation{
		ID:       rec.ID,
		Customer: toCustomer(rec.Expand.Customer),
		Pincode:  rec.Pincode,
		Items:    items,
		Created:  rec.Created,
	}
}

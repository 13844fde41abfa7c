package ports

import (
	"context"

	"github.com/reliant/configurator/pkg/domain"
)

// FlowStore persists flow snapshots between requests.
type FlowStore interface {
	// Save persists the flow for a given session ID.
	Save(ctx context.Context, sessionID string, flow *domain.Flow) error

	// Load retrieves the flow for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Flow, error)

	// Delete removes the flow for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// CartStore persists carts of configured products.
type CartStore interface {
	SaveCart(ctx context.Context, cart *domain.Cart) error

	// LoadCart returns domain.ErrCartNotFound if the cart does not exist.
	LoadCart(ctx context.Context, cartID string) (*domain.Cart, error)

	DeleteCart(ctx context.Context, cartID string) error
}

// QuotationStore persists customers, quotations and their items.
type QuotationStore interface {
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	CreateQuotation(ctx context.Context, customerID string) (*domain.Quotation, error)
	CreateQuotationItem(ctx context.Context, item domain.QuotationItem) (*domain.QuotationItem, error)

	// GetQuotation returns domain.ErrQuotationNotFound if the quotation does not exist.
	GetQuotation(ctx context.Context, id string) (*domain.Quotation, error)
	ListQuotations(ctx context.Context) ([]domain.Quotation, error)
	UpdateItemPrice(ctx context.Context, itemID string, price float64) error
}

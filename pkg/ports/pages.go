package ports

import (
	"context"

	"github.com/reliant/configurator/pkg/domain"
)

// PageStore defines how the engine retrieves page definitions.
// This allows the storage layer (PocketBase, Loam, Memory) to be decoupled.
type PageStore interface {
	// GetPage retrieves a page with its selections or number inputs resolved.
	// Returns an error wrapping domain.ErrPageNotFound if the id is unknown.
	GetPage(ctx context.Context, id string) (*domain.Page, error)

	// ListPages returns the ids of all pages, used by validation and graph tooling.
	ListPages(ctx context.Context) ([]string, error)
}

// ProductCatalog lists configurable products.
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// GetProduct returns domain.ErrProductNotFound if the id is unknown.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

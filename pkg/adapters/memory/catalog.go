package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/reliant/configurator/pkg/domain"
)

// Catalog implements ports.PageStore and ports.ProductCatalog over fixed data.
type Catalog struct {
	pages    map[string]domain.Page
	products []domain.Product
}

// NewCatalog creates a catalog from domain objects.
// This is mostly used by tests and the dsl builder.
func NewCatalog(products []domain.Product, pages ...domain.Page) (*Catalog, error) {
	c := &Catalog{
		pages:    make(map[string]domain.Page, len(pages)),
		products: append([]domain.Product(nil), products...),
	}
	for _, p := range pages {
		if p.ID == "" {
			return nil, fmt.Errorf("page missing ID")
		}
		if _, dup := c.pages[p.ID]; dup {
			return nil, fmt.Errorf("duplicate page %s", p.ID)
		}
		c.pages[p.ID] = p
	}
	return c, nil
}

// GetPage returns a copy of the page with the given id.
func (c *Catalog) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	p, ok := c.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPageNotFound, id)
	}
	return &p, nil
}

// ListPages returns all page ids in a deterministic order.
func (c *Catalog) ListPages(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(c.pages))
	for k := range c.pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListProducts returns the products in catalog order.
func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), c.products...), nil
}

// GetProduct returns the product with the given id.
func (c *Catalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
}

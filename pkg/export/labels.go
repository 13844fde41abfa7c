package export

import (
	"context"
	"fmt"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
)

// CatalogLabels collects product names, page and number input titles and
// selection titles from the catalog, for quotations whose items only carry ids.
func CatalogLabels(ctx context.Context, products []domain.Product, store ports.PageStore) (Labels, error) {
	l := Labels{
		Products: make(map[string]string, len(products)),
		Details:  map[string]string{},
		Values:   map[string]string{},
	}
	for _, p := range products {
		l.Products[p.ID] = p.Name
	}

	ids, err := store.ListPages(ctx)
	if err != nil {
		return l, fmt.Errorf("failed to list pages: %w", err)
	}
	for _, id := range ids {
		page, err := store.GetPage(ctx, id)
		if err != nil {
			return l, fmt.Errorf("failed to load page %s: %w", id, err)
		}
		l.Details[page.ID] = page.Title
		for _, s := range page.Selections {
			l.Values[s.ID] = s.Title
		}
		for _, in := range page.NumberInputs {
			l.Details[in.ID] = in.Title
		}
	}
	return l, nil
}

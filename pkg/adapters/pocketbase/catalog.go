package pocketbase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/reliant/configurator/pkg/domain"
)

type productRecord struct {
	ID           string `pb:"id"`
	CollectionID string `pb:"collectionId"`
	Name         string `pb:"name"`
	Desc         string `pb:"desc"`
	Image        string `pb:"image"`
	Page         string `pb:"page"`
}

type pageRecord struct {
	ID           string   `pb:"id"`
	Type         string   `pb:"type"`
	Title        string   `pb:"title"`
	Desc         string   `pb:"desc"`
	NextPages    []string `pb:"next_pages"`
	Selections   []string `pb:"selections"`
	NumberInputs []string `pb:"number_inputs"`
}

type selectionRecord struct {
	ID        string   `pb:"id"`
	Title     string   `pb:"title"`
	Desc      string   `pb:"desc"`
	Image     string   `pb:"image"`
	NextPages []string `pb:"next_pages"`
}

type numberRecord struct {
	ID       string  `pb:"id"`
	Title    string  `pb:"title"`
	Required bool    `pb:"required"`
	Minimum  float64 `pb:"minimum"`
	Maximum  float64 `pb:"maximum"`
	Decimals bool    `pb:"decimals"`
}

// Catalog implements ports.PageStore and ports.ProductCatalog over PocketBase.
type Catalog struct {
	client *Client
}

// NewCatalog creates a catalog backed by client.
func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client}
}

// GetPage fetches a page record and joins its selection or number items,
// keeping the order in which the page references them.
func (c *Catalog) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	var rec pageRecord
	if err := c.client.getOne(ctx, CollectionPages, id, nil, &rec); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPageNotFound, id)
		}
		return nil, fmt.Errorf("failed to load page %s: %w", id, err)
	}

	page := &domain.Page{
		ID:          rec.ID,
		Type:        domain.PageType(strings.ToUpper(rec.Type)),
		Title:       rec.Title,
		Description: rec.Desc,
		NextPages:   nonNil(rec.NextPages),
	}
	if !page.Type.Valid() {
		return nil, fmt.Errorf("page %s has unknown type %q", id, rec.Type)
	}

	switch page.Type {
	case domain.PageTypeSelection:
		items, err := fetchOrdered[selectionRecord](ctx, c.client, CollectionSelectionItems, rec.Selections)
		if err != nil {
			return nil, fmt.Errorf("failed to load selections of page %s: %w", id, err)
		}
		for _, it := range items {
			page.Selections = append(page.Selections, domain.Selection{
				ID:        it.ID,
				Title:     it.Title,
				Desc:      it.Desc,
				Image:     c.client.FileURL(SelectionItemsCollectionID, it.ID, it.Image),
				NextPages: it.NextPages,
			})
		}
	case domain.PageTypeNumber:
		items, err := fetchOrdered[numberRecord](ctx, c.client, CollectionNumberItems, rec.NumberInputs)
		if err != nil {
			return nil, fmt.Errorf("failed to load number inputs of page %s: %w", id, err)
		}
		for _, it := range items {
			page.NumberInputs = append(page.NumberInputs, domain.NumberInput(it))
		}
	}
	return page, nil
}

// ListPages returns the ids of every page record.
func (c *Catalog) ListPages(ctx context.Context) ([]string, error) {
	raw, err := c.client.fullList(ctx, CollectionPages, url.Values{"fields": {"id"}, "sort": {"id"}})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		if id, ok := r["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListProducts returns every product with its image resolved to a URL.
func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	raw, err := c.client.fullList(ctx, CollectionProducts, url.Values{"sort": {"name"}})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]domain.Product, 0, len(raw))
	for _, r := range raw {
		var rec productRecord
		if err := decode(r, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, c.product(rec))
	}
	return products, nil
}

// GetProduct returns a single product.
func (c *Catalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var rec productRecord
	if err := c.client.getOne(ctx, CollectionProducts, id, nil, &rec); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	p := c.product(rec)
	return &p, nil
}

func (c *Catalog) product(rec productRecord) domain.Product {
	return domain.Product{
		ID:           rec.ID,
		Name:         rec.Name,
		Desc:         rec.Desc,
		Image:        c.client.FileURL(rec.CollectionID, rec.ID, rec.Image),
		CollectionID: rec.CollectionID,
		Page:         rec.Page,
	}
}

// fetchOrdered loads the records with the given ids and returns them in ids order.
// Referenced ids missing from the collection are an error.
func fetchOrdered[T any](ctx context.Context, client *Client, collection string, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := client.fullList(ctx, collection, url.Values{"filter": {idFilter("id", ids)}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]map[string]any, len(raw))
	for _, r := range raw {
		if id, ok := r["id"].(string); ok {
			byID[id] = r
		}
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%s: missing record %s", collection, id)
		}
		var item T
		if err := decode(r, &item); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", collection, id, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

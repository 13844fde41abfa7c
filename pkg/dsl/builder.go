package dsl

import (
	"fmt"

	"github.com/reliant/configurator/pkg/adapters/memory"
	"github.com/reliant/configurator/pkg/domain"
)

// Builder manages catalog construction.
type Builder struct {
	pages    map[string]*PageBuilder
	order    []string
	products []*ProductBuilder
}

// New creates a new catalog builder.
func New() *Builder {
	return &Builder{
		pages: make(map[string]*PageBuilder),
	}
}

// Product adds a product to the catalog.
func (b *Builder) Product(id, name string) *ProductBuilder {
	pb := &ProductBuilder{product: domain.Product{ID: id, Name: name}}
	b.products = append(b.products, pb)
	return pb
}

// Selection adds a SELECTION page.
func (b *Builder) Selection(id, title string) *PageBuilder {
	return b.add(id, title, domain.PageTypeSelection)
}

// Number adds a NUMBER page.
func (b *Builder) Number(id, title string) *PageBuilder {
	return b.add(id, title, domain.PageTypeNumber)
}

// Text adds a TEXT page.
func (b *Builder) Text(id, title string) *PageBuilder {
	return b.add(id, title, domain.PageTypeText)
}

// add returns the existing builder if the page was already declared.
func (b *Builder) add(id, title string, t domain.PageType) *PageBuilder {
	if pb, ok := b.pages[id]; ok {
		return pb
	}
	pb := &PageBuilder{page: domain.Page{ID: id, Title: title, Type: t}}
	b.pages[id] = pb
	b.order = append(b.order, id)
	return pb
}

// Pages returns the declared pages in declaration order.
func (b *Builder) Pages() []domain.Page {
	pages := make([]domain.Page, 0, len(b.order))
	for _, id := range b.order {
		pages = append(pages, b.pages[id].page)
	}
	return pages
}

// Products returns the declared products in declaration order.
func (b *Builder) Products() []domain.Product {
	products := make([]domain.Product, 0, len(b.products))
	for _, pb := range b.products {
		products = append(products, pb.product)
	}
	return products
}

// Build compiles the catalog into an in-memory page store and product catalog.
func (b *Builder) Build() (*memory.Catalog, error) {
	catalog, err := memory.NewCatalog(b.Products(), b.Pages()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory catalog: %w", err)
	}
	return catalog, nil
}

// ProductBuilder configures a product.
type ProductBuilder struct {
	product domain.Product
}

// Starts sets the first page of the product's flow.
func (p *ProductBuilder) Starts(pageID string) *ProductBuilder {
	p.product.Page = pageID
	return p
}

// Image sets the product image URL.
func (p *ProductBuilder) Image(url string) *ProductBuilder {
	p.product.Image = url
	return p
}

// Desc sets the product description.
func (p *ProductBuilder) Desc(desc string) *ProductBuilder {
	p.product.Desc = desc
	return p
}

package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/reliant/configurator/internal/testutils"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogFiles = map[string]string{
	"window.md": `---
id: window
kind: product
name: Casement Window
image: https://cdn.example.com/window.png
page: frame
---
Side hung window, made to measure.`,
	"frame.md": `---
id: frame
type: SELECTION
title: Frame material
next_pages: [size]
selections:
  - id: oak
    title: Oak
    next_pages: [finish.md]
  - id: upvc
    title: uPVC
---
Choose the **frame** material.`,
	"finish.md": `---
type: TEXT
title: Oak finish
---`,
	"size.md": `---
id: size
type: number
title: Opening size
number_inputs:
  - id: width
    title: Width (mm)
    required: true
    minimum: 300
    maximum: 2400
  - id: ratio
    title: Ratio
    minimum: 0.5
    maximum: 2
    decimals: true
---`,
}

func seedCatalog(t *testing.T) *Loader {
	t.Helper()
	_, repo := testutils.SetupCatalogRepo(t, catalogFiles)
	return New(loam.NewTypedRepository[PageMetadata](repo))
}

func TestLoader_Contract(t *testing.T) {
	loader := seedCatalog(t)
	tests.PageStoreContractTest(t, loader, []domain.Page{
		{ID: "frame", Type: domain.PageTypeSelection, Title: "Frame material", NextPages: []string{"size"}, Selections: make([]domain.Selection, 2)},
		{ID: "finish", Type: domain.PageTypeText, Title: "Oak finish"},
		{ID: "size", Type: domain.PageTypeNumber, Title: "Opening size", NumberInputs: make([]domain.NumberInput, 2)},
	})
}

func TestLoader_GetPage_DecodesItems(t *testing.T) {
	loader := seedCatalog(t)
	ctx := context.Background()

	frame, err := loader.GetPage(ctx, "frame")
	require.NoError(t, err)
	assert.Equal(t, "Choose the **frame** material.", frame.Description)
	require.Len(t, frame.Selections, 2)
	assert.Equal(t, []string{"finish"}, frame.Selections[0].NextPages, "extensions are stripped from references")

	size, err := loader.GetPage(ctx, "size")
	require.NoError(t, err)
	assert.Equal(t, domain.PageTypeNumber, size.Type, "type is case-insensitive")
	require.Len(t, size.NumberInputs, 2)
	assert.Equal(t, 300.0, size.NumberInputs[0].Minimum)
	assert.Equal(t, 0.5, size.NumberInputs[1].Minimum)
	assert.True(t, size.NumberInputs[1].Decimals)

	_, err = loader.GetPage(ctx, "window")
	assert.ErrorIs(t, err, domain.ErrPageNotFound, "products are not pages")
}

func TestLoader_Products(t *testing.T) {
	loader := seedCatalog(t)
	ctx := context.Background()

	products, err := loader.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "frame", products[0].Page)
	assert.Equal(t, "Side hung window, made to measure.", products[0].Desc)

	p, err := loader.GetProduct(ctx, "window")
	require.NoError(t, err)
	assert.Equal(t, "Casement Window", p.Name)

	_, err = loader.GetProduct(ctx, "frame")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestLoader_ListPages_DetectsCollisions(t *testing.T) {
	_, repo := testutils.SetupCatalogRepo(t, map[string]string{
		"foo.md":   "---\nid: foo\ntype: TEXT\n---\nExplicit ID",
		"foo.json": `{"id": "foo", "type": "TEXT"}`,
	})

	loader := New(loam.NewTypedRepository[PageMetadata](repo))
	_, err := loader.ListPages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_UnknownType(t *testing.T) {
	_, repo := testutils.SetupCatalogRepo(t, map[string]string{
		"odd.md": "---\nid: odd\ntype: SLIDER\n---",
	})

	loader := New(loam.NewTypedRepository[PageMetadata](repo))
	_, err := loader.GetPage(context.Background(), "odd")
	assert.ErrorContains(t, err, "unknown type")
}

package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/dsl"
	"github.com/reliant/configurator/pkg/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func configured() []domain.ConfiguredProduct {
	oak := domain.Selection{ID: "oak", Title: "Oak"}
	return []domain.ConfiguredProduct{{
		ID:       "item-1",
		Product:  domain.Product{ID: "window", Name: "Casement Window"},
		Quantity: 2,
		UserSelections: []domain.Step{
			{PageID: "frame", PageTitle: "Frame material", PageType: domain.PageTypeSelection,
				UserInput: domain.UserInput{Selection: &oak}},
			{PageID: "size", PageTitle: "Opening size", PageType: domain.PageTypeNumber,
				UserInput: domain.UserInput{Numbers: map[string]domain.NumberValue{
					"width": {Title: "Width (mm)", Value: 900},
				}}},
		},
	}}
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteCart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCart(&buf, configured()))

	rows := readRows(t, buf.Bytes(), export.SheetItems)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Item", "Product", "Quantity", "Price", "Detail", "Value"}, rows[0])
	assert.Equal(t, []string{"1", "Casement Window", "2", "0", "Frame material", "Oak"}, rows[1])
	assert.Equal(t, []string{"1", "Casement Window", "2", "0", "Width (mm)", "900"}, rows[2])
}

func TestWriteQuotation(t *testing.T) {
	q := domain.Quotation{
		ID:       "q-1",
		Customer: domain.Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "0123"},
		Pincode:  "N1",
		Created:  time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC),
		Items: []domain.QuotationItem{
			{ID: "i1", Product: "door", Quantity: 1, Price: 99.5},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteQuotation(&buf, q, export.Labels{}))

	items := readRows(t, buf.Bytes(), export.SheetItems)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"1", "door", "1", "99.5"}, items[1])

	customer := readRows(t, buf.Bytes(), export.SheetCustomer)
	assert.Contains(t, customer, []string{"Email", "ada@example.com"})
	assert.Contains(t, customer, []string{"Created", "2026-03-04 10:30"})
}

func TestCatalogLabels(t *testing.T) {
	b := dsl.New()
	b.Product("window", "Casement Window").Starts("frame")
	b.Selection("frame", "Frame material").
		Option("oak", "Oak").
		Next("size")
	b.Number("size", "Opening size").
		Input("width", "Width (mm)").Range(300, 2400).Required()
	catalog, err := b.Build()
	require.NoError(t, err)

	ctx := context.Background()
	products, err := catalog.ListProducts(ctx)
	require.NoError(t, err)

	labels, err := export.CatalogLabels(ctx, products, catalog)
	require.NoError(t, err)
	assert.Equal(t, "Casement Window", labels.Products["window"])
	assert.Equal(t, "Frame material", labels.Details["frame"])
	assert.Equal(t, "Width (mm)", labels.Details["width"])
	assert.Equal(t, "Oak", labels.Values["oak"])
}

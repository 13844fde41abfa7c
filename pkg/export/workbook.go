// Package export writes carts and quotations as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"slices"

	"github.com/reliant/configurator/pkg/cart"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SheetItems    = "Items"
	SheetCustomer = "Customer"
)

var itemHeader = []any{"Item", "Product", "Quantity", "Price", "Detail", "Value"}

// Labels maps ids stored in quotation items to human readable titles.
// Missing entries fall back to the id.
type Labels struct {
	Products map[string]string // product id -> name
	Details  map[string]string // page or number input id -> title
	Values   map[string]string // selection id -> title
}

func (l Labels) lookup(m map[string]string, id string) string {
	if t, ok := m[id]; ok && t != "" {
		return t
	}
	return id
}

// LabelsFromProducts collects titles from the recorded steps of configured products.
func LabelsFromProducts(products []domain.ConfiguredProduct) Labels {
	l := Labels{
		Products: map[string]string{},
		Details:  map[string]string{},
		Values:   map[string]string{},
	}
	for _, p := range products {
		l.Products[p.Product.ID] = p.Product.Name
		for _, s := range p.UserSelections {
			l.Details[s.PageID] = s.PageTitle
			if sel := s.UserInput.Selection; sel != nil {
				l.Values[sel.ID] = sel.Title
			}
			for id, n := range s.UserInput.Numbers {
				l.Details[id] = n.Title
			}
		}
	}
	return l
}

// Workbook builds a workbook with one row per item detail. Item, product,
// quantity and price repeat on every row of the item so the sheet can be filtered.
func Workbook(items []domain.QuotationItem, labels Labels) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetItems); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeItems(f, items, labels); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeItems(f *excelize.File, items []domain.QuotationItem, labels Labels) error {
	if err := f.SetSheetRow(SheetItems, "A1", &itemHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetItems, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetPanes(SheetItems, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	row := 2
	for i, it := range items {
		keys := make([]string, 0, len(it.ProductDetails))
		for k := range it.ProductDetails {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		if len(keys) == 0 {
			keys = []string{""}
		}

		for _, k := range keys {
			var value any
			if k != "" {
				value = it.ProductDetails[k]
				if s, ok := value.(string); ok {
					value = labels.lookup(labels.Values, s)
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []any{
				i + 1,
				labels.lookup(labels.Products, it.Product),
				it.Quantity,
				it.Price,
				labels.lookup(labels.Details, k),
				value,
			}
			if err := f.SetSheetRow(SheetItems, cell, &values); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(SheetItems, "A", "F", 20)
}

// WriteCart writes the cart's configured products to w.
func WriteCart(w io.Writer, products []domain.ConfiguredProduct) error {
	f, err := Workbook(cart.TransformToQuotationItems("", products), LabelsFromProducts(products))
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()
	return f.Write(w)
}

// WriteQuotation writes a stored quotation with a customer sheet to w.
func WriteQuotation(w io.Writer, q domain.Quotation, labels Labels) error {
	f, err := Workbook(q.Items, labels)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.NewSheet(SheetCustomer); err != nil {
		return err
	}
	rows := [][]any{
		{"Quotation", q.ID},
		{"Created", q.Created.Format("2006-01-02 15:04")},
		{"First name", q.Customer.FirstName},
		{"Last name", q.Customer.LastName},
		{"Email", q.Customer.Email},
		{"Phone", q.Customer.Phone},
		{"Postcode", q.Pincode},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetCustomer, cell, &r); err != nil {
			return err
		}
	}
	return f.Write(w)
}

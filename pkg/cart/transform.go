package cart

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reliant/configurator/pkg/domain"
)

// TransformToQuotationItems converts configured products into quotation items,
// one per product. product_details maps the page id to the chosen selection id or
// text for SELECTION and TEXT pages, and each number input id to its value.
func TransformToQuotationItems(quotationID string, products []domain.ConfiguredProduct) []domain.QuotationItem {
	items := make([]domain.QuotationItem, 0, len(products))
	for _, p := range products {
		items = append(items, domain.QuotationItem{
			Quotation:      quotationID,
			Product:        p.Product.ID,
			ProductDetails: ProductDetails(p.UserSelections),
			Quantity:       p.Quantity,
		})
	}
	return items
}

// ProductDetails flattens the recorded steps of one product.
// Later steps overwrite earlier ones on key collision.
func ProductDetails(steps []domain.Step) map[string]any {
	details := make(map[string]any, len(steps))
	for _, s := range steps {
		switch s.PageType {
		case domain.PageTypeSelection:
			if s.UserInput.Selection != nil {
				details[s.PageID] = s.UserInput.Selection.ID
			}
		case domain.PageTypeNumber:
			for id, v := range s.UserInput.Numbers {
				details[id] = v.Value
			}
		case domain.PageTypeText:
			if s.UserInput.Text != nil {
				details[s.PageID] = s.UserInput.Text.TextValue
			}
		}
	}
	return details
}

// MatchQuery reports whether the quotation matches a free text search over its
// id, pincode, customer, products and detail values. An empty query matches all.
func MatchQuery(q domain.Quotation, query string) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}

	fields := []string{q.ID, q.Pincode, q.Customer.FirstName, q.Customer.LastName, q.Customer.Email, q.Customer.Phone}
	if !q.Created.IsZero() {
		fields = append(fields, q.Created.Format("2006-01-02"))
	}
	for _, it := range q.Items {
		fields = append(fields, it.Product, fmt.Sprint(it.Quantity))
		for k, v := range it.ProductDetails {
			fields = append(fields, k, fmt.Sprint(v))
		}
	}
	return strings.Contains(strings.ToLower(strings.Join(fields, " ")), needle)
}

// ProductChips returns the distinct product ids of a quotation in item order.
func ProductChips(q domain.Quotation) []string {
	chips := make([]string, 0, len(q.Items))
	for _, it := range q.Items {
		if !slices.Contains(chips, it.Product) {
			chips = append(chips, it.Product)
		}
	}
	return chips
}

package loam

// PageMetadata is the frontmatter of a catalog document.
// It uses "mapstructure" tags to match the YAML keys written by catalog authors.
// The document body is the page (or product) description.
type PageMetadata struct {
	ID string `json:"id" mapstructure:"id"`

	// Kind is "product" for product documents; anything else is a page.
	Kind string `json:"kind" mapstructure:"kind"`

	// Page fields
	Type      string   `json:"type" mapstructure:"type"`
	Title     string   `json:"title" mapstructure:"title"`
	NextPages []string `json:"next_pages" mapstructure:"next_pages"`

	// Selections and NumberInputs are decoded item by item so a malformed entry
	// reports which page it belongs to.
	Selections   []any `json:"selections" mapstructure:"selections"`
	NumberInputs []any `json:"number_inputs" mapstructure:"number_inputs"`

	// Product fields
	Name         string `json:"name" mapstructure:"name"`
	Image        string `json:"image" mapstructure:"image"`
	CollectionID string `json:"collection_id" mapstructure:"collection_id"`
	Page         string `json:"page" mapstructure:"page"`
}

// KindProduct marks product documents.
const KindProduct = "product"

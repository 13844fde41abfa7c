package domain

import "time"

// Product is a configurable item of the catalog. Page is the id of its first page.
type Product struct {
	ID           string `json:"id" yaml:"id" mapstructure:"id"`
	Name         string `json:"name" yaml:"name" mapstructure:"name"`
	Desc         string `json:"desc,omitempty" yaml:"desc,omitempty" mapstructure:"desc"`
	Image        string `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
	CollectionID string `json:"collectionId,omitempty" yaml:"collection_id,omitempty" mapstructure:"collectionId"`
	Page         string `json:"page" yaml:"page" mapstructure:"page"`
}

// ConfiguredProduct is the artifact of a completed flow.
type ConfiguredProduct struct {
	ID             string    `json:"id"`
	Product        Product   `json:"product"`
	UserSelections []Step    `json:"userSelections"`
	Quantity       int       `json:"quantity"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Customer is the contact a quotation is raised for.
type Customer struct {
	ID        string `json:"id,omitempty" mapstructure:"id"`
	FirstName string `json:"first_name" mapstructure:"first_name"`
	LastName  string `json:"last_name" mapstructure:"last_name"`
	Email     string `json:"email" mapstructure:"email"`
	Phone     string `json:"phone" mapstructure:"phone"`
	Postcode  string `json:"postcode,omitempty" mapstructure:"postcode"`
}

// QuotationItem is the persisted form of one configured product.
// ProductDetails maps page id (or number input id) to the chosen value.
type QuotationItem struct {
	ID             string         `json:"id,omitempty" mapstructure:"id"`
	Quotation      string         `json:"quotation,omitempty" mapstructure:"quotation"`
	Product        string         `json:"product" mapstructure:"product"`
	ProductDetails map[string]any `json:"product_details" mapstructure:"product_details"`
	Quantity       int            `json:"quantity" mapstructure:"quantity"`
	Price          float64        `json:"price,omitempty" mapstructure:"price"`
}

// Quotation groups the items requested by one customer.
type Quotation struct {
	ID       string          `json:"id,omitempty" mapstructure:"id"`
	Customer Customer        `json:"customer" mapstructure:"customer"`
	Pincode  string          `json:"pincode,omitempty" mapstructure:"pincode"`
	Items    []QuotationItem `json:"items" mapstructure:"items"`
	Created  time.Time       `json:"created" mapstructure:"created"`
}

package domain

import "time"

// Cart collects the configured products of one customer visit.
type Cart struct {
	ID        string              `json:"id"`
	Items     []ConfiguredProduct `json:"items"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewCart creates an empty cart.
func NewCart(id string) *Cart {
	return &Cart{ID: id, Items: []ConfiguredProduct{}}
}

// Item returns the index of the configured product with the given id, or -1.
func (c *Cart) Item(id string) int {
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

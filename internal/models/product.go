package models

import "time"

const (
	ProductStatusInStock    = "In Stock"
	ProductStatusOutOfStock = "Out of Stock"
)

// Product is a catalog record as served by the product catalog.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	ImageRef      string    `json:"image_ref,omitempty"`
	Status        string    `json:"status"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Sizes         []string  `json:"sizes,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *Product) InStock() bool {
	return p.Status == ProductStatusInStock
}

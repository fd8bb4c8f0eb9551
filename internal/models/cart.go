package models

// CartLineItem is one product in the cart together with the quantity the shopper intends to buy.
type CartLineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	ImageRef  string  `json:"image_ref,omitempty"`
}

func (i CartLineItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// CartView is the cart page payload. TotalItems counts distinct products.
type CartView struct {
	SessionID     string         `json:"session_id"`
	Items         []CartLineItem `json:"items"`
	TotalItems    int            `json:"total_items"`
	TotalQuantity int            `json:"total_quantity"`
	Subtotal      float64        `json:"subtotal"`
	TotalPrice    string         `json:"total_price"`
	Persisted     bool           `json:"persisted"`
	Warnings      []string       `json:"warnings,omitempty"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"omitempty,min=1"`
}

// A quantity of zero or less removes the line item.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

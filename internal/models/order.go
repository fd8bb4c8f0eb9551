package models

import (
	"time"

	"github.com/google/uuid"
)

// BillingForm holds the customer fields required to place an order.
type BillingForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Country   string `json:"country"`
	City      string `json:"city"`
	ZipCode   string `json:"zip_code"`
	Phone     string `json:"phone"`
}

// OrderLine references a purchased product.
type OrderLine struct {
	ProductRef string  `json:"product_ref"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

// OrderRecord is created once per confirmed checkout and never mutated afterwards.
type OrderRecord struct {
	ID        uuid.UUID   `json:"id"`
	SessionID string      `json:"session_id"`
	Billing   BillingForm `json:"billing"`
	CartItems []OrderLine `json:"cart_items"`
	Total     float64     `json:"total"`
	Discount  float64     `json:"discount"`
	OrderDate time.Time   `json:"order_date"`
}

type OrderResponse struct {
	Order *OrderRecord `json:"order"`
}

package models

// FieldErrors flags every billing field by key; true means the field is invalid.
type FieldErrors map[string]bool

func (f FieldErrors) Any() bool {
	for _, invalid := range f {
		if invalid {
			return true
		}
	}

	return false
}

type CheckoutSummary struct {
	State        string         `json:"state"`
	Items        []CartLineItem `json:"items"`
	Subtotal     float64        `json:"subtotal"`
	Discount     float64        `json:"discount"`
	Total        float64        `json:"total"`
	DisplayTotal string         `json:"display_total"`
	Form         BillingForm    `json:"form"`
	Invalid      FieldErrors    `json:"invalid,omitempty"`
}

type CheckoutOutcome struct {
	State        string           `json:"state"`
	Invalid      FieldErrors      `json:"invalid,omitempty"`
	Summary      *CheckoutSummary `json:"summary,omitempty"`
	Order        *OrderRecord     `json:"order,omitempty"`
	Notification *Notification    `json:"notification,omitempty"`
}

type ConfirmRequest struct {
	Confirmed *bool `json:"confirmed" validate:"required"`
}

type ApplyDiscountRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}

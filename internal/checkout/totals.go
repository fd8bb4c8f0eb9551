package checkout

import (
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// DiscountPolicy decides what happens when the discount is larger than the subtotal.
type DiscountPolicy string

const (
	// PolicyNone subtracts as-is; the total may go negative.
	PolicyNone   DiscountPolicy = "none"
	PolicyClamp  DiscountPolicy = "clamp"
	PolicyReject DiscountPolicy = "reject"
)

var ErrDiscountExceedsSubtotal = errors.New("checkout: discount exceeds subtotal")

func ParsePolicy(s string) (DiscountPolicy, error) {
	switch p := DiscountPolicy(s); p {
	case PolicyNone, PolicyClamp, PolicyReject:
		return p, nil
	case "":
		return PolicyNone, nil
	default:
		return "", fmt.Errorf("checkout: unknown discount policy %q", s)
	}
}

func Subtotal(items []models.CartLineItem) float64 {

	var subtotal float64
	for _, item := range items {
		subtotal += item.LineTotal()
	}

	return subtotal
}

// Total is subtotal minus the flat discount, unrounded.
func Total(subtotal, discount float64, policy DiscountPolicy) (float64, error) {

	total := subtotal - discount

	if total >= 0 {
		return total, nil
	}

	switch policy {
	case PolicyClamp:
		return 0, nil
	case PolicyReject:
		return total, ErrDiscountExceedsSubtotal
	default:
		return total, nil
	}
}

// FormatAmount renders an amount rounded to two decimal places.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

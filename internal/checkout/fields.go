package checkout

import (
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Field describes one billing input: its key in the invalid-field set, the
// label shown next to it and the validator rule it must satisfy.
type Field struct {
	Key   string
	Label string
	Rule  string
	get   func(*models.BillingForm) *string
}

func (f Field) Value(form *models.BillingForm) string {
	return *f.get(form)
}

// BillingFields lists every billing input in display order.
var BillingFields = []Field{
	{Key: "first_name", Label: "First name", Rule: "required", get: func(b *models.BillingForm) *string { return &b.FirstName }},
	{Key: "last_name", Label: "Last name", Rule: "required", get: func(b *models.BillingForm) *string { return &b.LastName }},
	{Key: "email", Label: "Email", Rule: "required", get: func(b *models.BillingForm) *string { return &b.Email }},
	{Key: "address", Label: "Address", Rule: "required", get: func(b *models.BillingForm) *string { return &b.Address }},
	{Key: "country", Label: "Country", Rule: "required", get: func(b *models.BillingForm) *string { return &b.Country }},
	{Key: "city", Label: "City", Rule: "required", get: func(b *models.BillingForm) *string { return &b.City }},
	{Key: "zip_code", Label: "Zip code", Rule: "required", get: func(b *models.BillingForm) *string { return &b.ZipCode }},
	{Key: "phone", Label: "Phone", Rule: "required", get: func(b *models.BillingForm) *string { return &b.Phone }},
}

// Validate checks every field independently and reports all of them, valid
// ones as false.
func Validate(v *validator.Validate, form models.BillingForm) models.FieldErrors {

	invalid := make(models.FieldErrors, len(BillingFields))

	for _, field := range BillingFields {
		invalid[field.Key] = v.Var(field.Value(&form), field.Rule) != nil
	}

	return invalid
}

var strict = bluemonday.StrictPolicy()

// HTMLSafe returns a copy of form for embedding in HTML: markup is removed and
// the remaining text is entity-escaped. Whitespace is left alone.
func HTMLSafe(form models.BillingForm) models.BillingForm {

	for _, field := range BillingFields {
		p := field.get(&form)
		*p = strict.Sanitize(*p)
	}

	return form
}

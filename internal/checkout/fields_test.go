package checkout_test

import (
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/checkout"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func completeForm() models.BillingForm {
	return models.BillingForm{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Address:   "12 St James's Square",
		Country:   "United Kingdom",
		City:      "London",
		ZipCode:   "SW1Y 4JH",
		Phone:     "+44 20 7946 0000",
	}
}

func TestValidate(t *testing.T) {
	v := validator.New()

	t.Run("Complete form", func(t *testing.T) {
		invalid := checkout.Validate(v, completeForm())

		assert.Len(t, invalid, len(checkout.BillingFields))
		assert.False(t, invalid.Any())
	})

	t.Run("Only email empty", func(t *testing.T) {
		form := completeForm()
		form.Email = ""

		invalid := checkout.Validate(v, form)

		assert.Equal(t, models.FieldErrors{
			"first_name": false,
			"last_name":  false,
			"email":      true,
			"address":    false,
			"country":    false,
			"city":       false,
			"zip_code":   false,
			"phone":      false,
		}, invalid)
	})

	t.Run("Whitespace and bare markup count as entered", func(t *testing.T) {
		form := completeForm()
		form.FirstName = "   "
		form.LastName = "<b></b>"

		invalid := checkout.Validate(v, form)

		assert.False(t, invalid["first_name"])
		assert.False(t, invalid["last_name"])
	})

	t.Run("Every empty field is reported", func(t *testing.T) {
		invalid := checkout.Validate(v, models.BillingForm{City: "Paris"})

		for _, field := range checkout.BillingFields {
			assert.Equal(t, field.Key != "city", invalid[field.Key], field.Key)
		}
	})

	t.Run("No format checks", func(t *testing.T) {
		form := completeForm()
		form.Email = "not-an-email"
		form.Phone = "call me"

		assert.False(t, checkout.Validate(v, form).Any())
	})
}

func TestHTMLSafe(t *testing.T) {
	form := completeForm()
	form.FirstName = "  <b>Ada</b> "
	form.City = "<script>alert(1)</script>"
	form.Address = "Smith & Co, 4 High St"
	form.Email = "&lt;script&gt;alert(1)&lt;/script&gt;"

	safe := checkout.HTMLSafe(form)

	assert.Equal(t, "  Ada ", safe.FirstName)
	assert.Empty(t, safe.City)
	assert.Equal(t, "Smith &amp; Co, 4 High St", safe.Address)
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", safe.Email, "encoded markup stays encoded")
	assert.NotContains(t, safe.Email, "<script>")
	assert.Equal(t, form.Phone, safe.Phone)
	assert.Equal(t, "  <b>Ada</b> ", form.FirstName, "input is not modified")
}

func TestBillingFieldsOrder(t *testing.T) {
	keys := make([]string, 0, len(checkout.BillingFields))
	for _, f := range checkout.BillingFields {
		keys = append(keys, f.Key)
		assert.NotEmpty(t, f.Label)
	}

	assert.Equal(t, []string{"first_name", "last_name", "email", "address", "country", "city", "zip_code", "phone"}, keys)
	assert.Equal(t, "Ada", checkout.BillingFields[0].Value(&models.BillingForm{FirstName: "Ada"}))
}

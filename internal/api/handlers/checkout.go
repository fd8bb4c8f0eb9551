package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService service.CheckoutService, validate *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, validator: validate}
}

// GetCheckout godoc
//
//	@Summary		Checkout summary
//	@Description	Items, subtotal, discount, total, checkout state, billing form and invalid fields.
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	models.CheckoutSummary
//	@Failure		503	{object}	response.ErrorResponse	"Discount could not be loaded"
//	@Router			/checkout [get]
func (h *CheckoutHandler) GetCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		summary, err := h.checkoutService.Summary(r.Context(), sessionID)
		if err != nil {
			logger.Error("Failed to build checkout summary", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, summary)
	}
}

// UpdateBilling godoc
//
//	@Summary		Save the billing form
//	@Description	Fields are stored as entered and checked on submit; only an empty field is invalid.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			form	body		models.BillingForm	true	"Billing details"
//	@Success		200		{object}	models.CheckoutSummary
//	@Failure		409		{object}	response.ErrorResponse	"Checkout is awaiting confirmation"
//	@Router			/checkout/billing [put]
func (h *CheckoutHandler) UpdateBilling() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		var form models.BillingForm
		if !utils.ParseAndValidate(r, w, &form, h.validator) {
			return
		}

		summary, err := h.checkoutService.UpdateBilling(r.Context(), sessionID, form)
		if err != nil {
			logger.Warn("Failed to update billing form", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, summary)
	}
}

// ApplyDiscount godoc
//
//	@Summary		Apply a discount amount
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			discount	body		models.ApplyDiscountRequest	true	"Discount amount"
//	@Success		200			{object}	models.CheckoutSummary
//	@Failure		400			{object}	response.ErrorResponse	"Negative amount"
//	@Failure		409			{object}	response.ErrorResponse	"Checkout is awaiting confirmation"
//	@Router			/checkout/discount [put]
func (h *CheckoutHandler) ApplyDiscount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		var req models.ApplyDiscountRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid discount input")
			return
		}

		summary, err := h.checkoutService.ApplyDiscount(r.Context(), sessionID, req.Amount)
		if err != nil {
			logger.Warn("Failed to apply discount", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Discount applied", slog.Float64("amount", req.Amount))
		response.Success(w, http.StatusOK, summary)
	}
}

// Submit godoc
//
//	@Summary		Submit the checkout for confirmation
//	@Description	Validates the billing form. The outcome state is "rejected" with the invalid fields, or "confirming" with the order summary.
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	models.CheckoutOutcome
//	@Failure		409	{object}	response.ErrorResponse	"Submission already in progress"
//	@Failure		429	{object}	response.ErrorResponse
//	@Router			/checkout/submit [post]
func (h *CheckoutHandler) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		outcome, err := h.checkoutService.Submit(r.Context(), sessionID)
		if err != nil {
			logger.Warn("Checkout submit refused", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Checkout submitted", slog.String("state", outcome.State))
		response.Success(w, http.StatusOK, outcome)
	}
}

// Confirm godoc
//
//	@Summary		Answer the confirmation prompt
//	@Description	confirmed=false returns to editing. confirmed=true places the order; the outcome state is "succeeded" or "failed".
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.ConfirmRequest	true	"Confirmation answer"
//	@Success		200		{object}	models.CheckoutOutcome
//	@Failure		409		{object}	response.ErrorResponse	"Checkout is not awaiting confirmation"
//	@Failure		429		{object}	response.ErrorResponse
//	@Router			/checkout/confirm [post]
func (h *CheckoutHandler) Confirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		var req models.ConfirmRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		outcome, err := h.checkoutService.Confirm(r.Context(), sessionID, *req.Confirmed)
		if err != nil {
			logger.Warn("Checkout confirm refused", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		attrs := []any{slog.String("state", outcome.State)}
		if outcome.Order != nil {
			attrs = append(attrs, slog.String("orderID", outcome.Order.ID.String()))
		}

		logger.Info("Checkout confirmation handled", attrs...)
		response.Success(w, http.StatusOK, outcome)
	}
}

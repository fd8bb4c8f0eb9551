package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService, validate *validator.Validate) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validate}
}

func writeCart(w http.ResponseWriter, statusCode int, view *models.CartView) {
	if len(view.Warnings) > 0 {
		response.SuccessWithWarnings(w, statusCode, view, view.Warnings)
		return
	}

	response.Success(w, statusCode, view)
}

// GetCart godoc
//
//	@Summary		Get the session cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartView
//	@Failure		401	{object}	response.ErrorResponse
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		view, err := h.cartService.GetCart(r.Context(), sessionID)
		if err != nil {
			logger.Error("Failed to get cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		writeCart(w, http.StatusOK, view)
	}
}

// AddItem godoc
//
//	@Summary		Add a product to the cart
//	@Description	Adds the product, or increases its quantity when it is already in the cart. Name, price and image come from the catalog.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and quantity (defaults to 1)"
//	@Success		200		{object}	models.CartView
//	@Failure		400		{object}	response.ErrorResponse	"Validation error or product out of stock"
//	@Failure		404		{object}	response.ErrorResponse	"Unknown product"
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		view, err := h.cartService.AddItem(r.Context(), sessionID, &req)
		if err != nil {
			logger.Warn("Failed to add item", slog.String("productID", req.ProductID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.String("productID", req.ProductID))
		writeCart(w, http.StatusOK, view)
	}
}

// UpdateQuantity godoc
//
//	@Summary		Set a line item quantity
//	@Description	A quantity of zero or less removes the item.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Product ID"
//	@Param			body	body		models.UpdateQuantityRequest	true	"New quantity"
//	@Success		200		{object}	models.CartView
//	@Failure		404		{object}	response.ErrorResponse	"Item not in cart"
//	@Router			/cart/items/{id} [put]
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, errors.BadRequestError("Product ID is required"))
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update quantity input")
			return
		}

		view, err := h.cartService.UpdateQuantity(r.Context(), sessionID, productID, *req.Quantity)
		if err != nil {
			logger.Warn("Failed to update quantity", slog.String("productID", productID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		writeCart(w, http.StatusOK, view)
	}
}

// RemoveItem godoc
//
//	@Summary		Remove a product from the cart
//	@Tags			Cart
//	@Produce		json
//	@Param			id	path		string	true	"Product ID"
//	@Success		200	{object}	models.CartView
//	@Router			/cart/items/{id} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, errors.BadRequestError("Product ID is required"))
			return
		}

		view, err := h.cartService.RemoveItem(r.Context(), sessionID, productID)
		if err != nil {
			logger.Error("Failed to remove item", slog.String("productID", productID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		writeCart(w, http.StatusOK, view)
	}
}

// ClearCart godoc
//
//	@Summary		Empty the cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartView
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		view, err := h.cartService.ClearCart(r.Context(), sessionID)
		if err != nil {
			logger.Error("Failed to clear cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared")
		writeCart(w, http.StatusOK, view)
	}
}

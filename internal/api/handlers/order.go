package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/google/uuid"
)

type OrderFinder interface {
	GetOrder(ctx context.Context, sessionID string, id uuid.UUID) (*models.OrderRecord, error)
}

type OrderHandler struct {
	orders OrderFinder
}

func NewOrderHandler(orders OrderFinder) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GetOrder godoc
//
//	@Summary		Get an order placed by this session
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.OrderResponse
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			logger.Warn("Invalid order ID format", slog.String("id", r.PathValue("id")))
			response.Error(w, errors.BadRequestError("Invalid order ID format"))
			return
		}

		order, err := h.orders.GetOrder(r.Context(), sessionID, id)
		if err != nil {
			logger.Warn("Failed to get order", slog.String("orderID", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.OrderResponse{Order: order})
	}
}

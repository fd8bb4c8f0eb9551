package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cart"
	"github.com/aaravmahajanofficial/storefront/internal/checkout"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
)

const (
	warnNotSaved    = "Your cart could not be saved and may be lost when you leave."
	warnNotRestored = "Your saved cart could not be restored."
)

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*models.CartView, error)
	AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.CartView, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*models.CartView, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*models.CartView, error)
	ClearCart(ctx context.Context, sessionID string) (*models.CartView, error)
	Store(ctx context.Context, sessionID string) (*cart.Store, error)
	EndSession(sessionID string)
}

type cartService struct {
	sessions *cart.Sessions
	products ProductService
}

func NewCartService(sessions *cart.Sessions, products ProductService) CartService {
	return &cartService{sessions: sessions, products: products}
}

// Store returns the session's cart. A cart whose snapshot could not be loaded
// is still returned, empty, together with a StorageError.
func (s *cartService) Store(ctx context.Context, sessionID string) (*cart.Store, error) {

	store, err := s.sessions.Get(ctx, sessionID)
	if err != nil && store == nil {
		return nil, appErrors.BadRequestError("Invalid session").WithError(err)
	}

	return store, err
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) (*models.CartView, error) {

	store, err := s.Store(ctx, sessionID)
	if store == nil {
		return nil, err
	}

	view := buildView(store)

	if isStorageError(err) {
		middleware.LoggerFromContext(ctx).Warn("Serving empty cart after load failure", slog.String("error", err.Error()))
		view.Warnings = append(view.Warnings, warnNotRestored)
	}

	return view, nil
}

func (s *cartService) AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.CartView, error) {

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	product, err := s.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if !product.InStock() {
		return nil, appErrors.BadRequestError("Product is out of stock")
	}

	return s.mutate(ctx, sessionID, "add", func(store *cart.Store) error {
		_, err := store.AddItem(ctx, *product, quantity)
		return err
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*models.CartView, error) {
	return s.mutate(ctx, sessionID, "update", func(store *cart.Store) error {
		_, err := store.UpdateQuantity(ctx, productID, quantity)
		return err
	})
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, productID string) (*models.CartView, error) {
	return s.mutate(ctx, sessionID, "remove", func(store *cart.Store) error {
		_, err := store.RemoveItem(ctx, productID)
		return err
	})
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	return s.mutate(ctx, sessionID, "clear", func(store *cart.Store) error {
		return store.Clear(ctx)
	})
}

func (s *cartService) EndSession(sessionID string) {
	s.sessions.Close(sessionID)
}

// mutate applies op to the session's cart. Storage failures leave the change
// in memory and are reported as a warning on the returned view.
func (s *cartService) mutate(ctx context.Context, sessionID, operation string, op func(*cart.Store) error) (*models.CartView, error) {

	logger := middleware.LoggerFromContext(ctx)

	store, err := s.Store(ctx, sessionID)
	if store == nil {
		return nil, err
	}

	var warnings []string
	if isStorageError(err) {
		warnings = append(warnings, warnNotRestored)
	}

	err = op(store)
	metrics.CartOperation(operation, err)

	switch {
	case err == nil:
	case isStorageError(err):
		logger.Warn("Cart change kept in memory only", slog.String("operation", operation), slog.String("error", err.Error()))
		warnings = append(warnings, warnNotSaved)
	case errors.Is(err, cart.ErrItemNotFound):
		return nil, appErrors.NotFoundError("Item not in cart").WithError(err)
	case errors.Is(err, cart.ErrInvalidQuantity):
		return nil, appErrors.BadRequestError("Quantity must be at least 1").WithError(err)
	default:
		return nil, appErrors.InternalError("Failed to update cart").WithError(err)
	}

	view := buildView(store)
	view.Warnings = append(view.Warnings, warnings...)

	return view, nil
}

func buildView(store *cart.Store) *models.CartView {

	items := store.ListItems()
	subtotal := checkout.Subtotal(items)

	return &models.CartView{
		SessionID:     store.SessionID(),
		Items:         items,
		TotalItems:    len(items),
		TotalQuantity: store.TotalQuantity(),
		Subtotal:      subtotal,
		TotalPrice:    checkout.FormatAmount(subtotal),
		Persisted:     store.Persisted(),
	}
}

func isStorageError(err error) bool {
	var storageErr *cart.StorageError
	return errors.As(err, &storageErr)
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/checkout"
	"github.com/aaravmahajanofficial/storefront/internal/discount"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/go-playground/validator/v10"
)

type CheckoutService interface {
	Summary(ctx context.Context, sessionID string) (*models.CheckoutSummary, error)
	UpdateBilling(ctx context.Context, sessionID string, form models.BillingForm) (*models.CheckoutSummary, error)
	ApplyDiscount(ctx context.Context, sessionID string, amount float64) (*models.CheckoutSummary, error)
	Submit(ctx context.Context, sessionID string) (*models.CheckoutOutcome, error)
	Confirm(ctx context.Context, sessionID string, proceed bool) (*models.CheckoutOutcome, error)
	End(sessionID string)
}

type CheckoutSettings struct {
	SubmitTimeout time.Duration
	Policy        checkout.DiscountPolicy
}

type checkoutService struct {
	carts     CartService
	discounts *discount.Store
	orders    checkout.OrderWriter
	notifier  checkout.Notifier
	validate  *validator.Validate
	settings  CheckoutSettings

	mu          sync.Mutex
	aggregators map[string]*checkout.Aggregator
}

func NewCheckoutService(carts CartService, discounts *discount.Store, orders checkout.OrderWriter, notifier checkout.Notifier, validate *validator.Validate, settings CheckoutSettings) CheckoutService {
	return &checkoutService{
		carts:       carts,
		discounts:   discounts,
		orders:      orders,
		notifier:    notifier,
		validate:    validate,
		settings:    settings,
		aggregators: make(map[string]*checkout.Aggregator),
	}
}

func (s *checkoutService) aggregator(ctx context.Context, sessionID string) (*checkout.Aggregator, error) {

	s.mu.Lock()
	agg, ok := s.aggregators[sessionID]
	s.mu.Unlock()

	if ok {
		return agg, nil
	}

	// A cart whose snapshot could not be read is not registered, and later cart
	// changes land in a different Store. Nothing is cached until the load succeeds.
	store, err := s.carts.Store(ctx, sessionID)
	if err != nil {
		if store != nil {
			return nil, appErrors.StorageError("Cart could not be loaded, please retry").WithError(err)
		}

		return nil, err
	}

	agg, err = checkout.New(ctx, sessionID, store, s.discounts, s.orders,
		checkout.WithLogger(slog.Default().With(slog.String("component", "checkout"))),
		checkout.WithSubmitTimeout(s.settings.SubmitTimeout),
		checkout.WithPolicy(s.settings.Policy),
		checkout.WithNotifier(s.notifier),
		checkout.WithValidator(s.validate),
	)
	if err != nil {
		return nil, appErrors.StorageError("Failed to load checkout state").WithError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.aggregators[sessionID]; ok {
		return existing, nil
	}

	s.aggregators[sessionID] = agg

	return agg, nil
}

func (s *checkoutService) Summary(ctx context.Context, sessionID string) (*models.CheckoutSummary, error) {

	agg, err := s.aggregator(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := agg.Summary()

	return &summary, nil
}

func (s *checkoutService) UpdateBilling(ctx context.Context, sessionID string, form models.BillingForm) (*models.CheckoutSummary, error) {

	agg, err := s.aggregator(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := agg.UpdateForm(form)
	if err != nil {
		return nil, transitionError(err)
	}

	return &summary, nil
}

func (s *checkoutService) ApplyDiscount(ctx context.Context, sessionID string, amount float64) (*models.CheckoutSummary, error) {

	agg, err := s.aggregator(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch agg.State() {
	case checkout.StateConfirming, checkout.StateSubmitting:
		return nil, appErrors.InvalidStateError("Checkout is awaiting confirmation")
	}

	if err := s.discounts.Apply(ctx, sessionID, amount); err != nil {
		if errors.Is(err, discount.ErrNegativeAmount) {
			return nil, appErrors.ValidationError("Discount must not be negative").WithError(err)
		}

		return nil, appErrors.StorageError("Failed to save discount").WithError(err)
	}

	summary, err := agg.ReloadDiscount(ctx)
	if err != nil {
		if errors.Is(err, checkout.ErrInvalidTransition) {
			return nil, transitionError(err)
		}

		return nil, appErrors.StorageError("Failed to load discount").WithError(err)
	}

	return &summary, nil
}

func (s *checkoutService) Submit(ctx context.Context, sessionID string) (*models.CheckoutOutcome, error) {

	agg, err := s.aggregator(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	outcome, err := agg.Submit(ctx)
	if err != nil {
		return nil, transitionError(err)
	}

	metrics.CheckoutOutcome(outcome.State)

	return outcome, nil
}

func (s *checkoutService) Confirm(ctx context.Context, sessionID string, proceed bool) (*models.CheckoutOutcome, error) {

	agg, err := s.aggregator(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	outcome, err := agg.Confirm(ctx, proceed)
	if err != nil {
		return nil, transitionError(err)
	}

	metrics.CheckoutOutcome(outcome.State)

	return outcome, nil
}

// End drops the session's checkout and cart state from memory. Persisted cart
// and discount entries are left to expire.
func (s *checkoutService) End(sessionID string) {

	s.mu.Lock()
	delete(s.aggregators, sessionID)
	s.mu.Unlock()

	s.carts.EndSession(sessionID)
}

func transitionError(err error) error {
	if errors.Is(err, checkout.ErrInvalidTransition) {
		return appErrors.InvalidStateError("Checkout cannot do that right now").WithDetail(err.Error()).WithError(err)
	}

	return appErrors.InternalError("Checkout failed").WithError(err)
}

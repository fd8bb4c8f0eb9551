package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/cart"
	"github.com/aaravmahajanofficial/storefront/internal/checkout"
	"github.com/aaravmahajanofficial/storefront/internal/discount"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, n)
}

type checkoutFixture struct {
	carts    service.CartService
	checkout service.CheckoutService
	orders   *mockOrderStore
	notifier *recordingNotifier
	mr       *miniredis.Miniredis
}

func newCheckoutFixture(t *testing.T, policy checkout.DiscountPolicy) *checkoutFixture {
	t.Helper()

	c, mr := newCache(t)
	repo := new(mockProductRepo)
	repo.On("GetProductByID", mock.Anything, linenShirt.ID).Return(linenShirt, nil).Maybe()
	repo.On("GetProductByID", mock.Anything, canvasTote.ID).Return(canvasTote, nil).Maybe()

	carts := service.NewCartService(cart.NewSessions(c), service.NewProductService(repo, c, time.Minute))
	orders := new(mockOrderStore)
	notifier := &recordingNotifier{}

	svc := service.NewCheckoutService(carts, discount.NewStore(c, time.Hour), orders, notifier, validator.New(),
		service.CheckoutSettings{SubmitTimeout: time.Second, Policy: policy})

	return &checkoutFixture{carts: carts, checkout: svc, orders: orders, notifier: notifier, mr: mr}
}

func (f *checkoutFixture) fillCart(t *testing.T) {
	t.Helper()

	_, err := f.carts.AddItem(t.Context(), "sess-1", &models.AddItemRequest{ProductID: linenShirt.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddItem(t.Context(), "sess-1", &models.AddItemRequest{ProductID: canvasTote.ID, Quantity: 3})
	require.NoError(t, err)
}

func TestCheckoutServiceHappyPath(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)
	ctx := t.Context()
	f.fillCart(t)

	summary, err := f.checkout.ApplyDiscount(ctx, "sess-1", 10)
	require.NoError(t, err)
	assert.Equal(t, "25.00", summary.DisplayTotal)
	assert.True(t, f.mr.Exists("appliedDiscount:sess-1"))

	_, err = f.checkout.UpdateBilling(ctx, "sess-1", billingForm())
	require.NoError(t, err)

	outcome, err := f.checkout.Submit(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, string(checkout.StateConfirming), outcome.State)

	f.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *models.OrderRecord) bool {
		return o.Total == 25 && o.Discount == 10 && len(o.CartItems) == 2
	})).Return(nil).Once()

	outcome, err = f.checkout.Confirm(ctx, "sess-1", true)

	require.NoError(t, err)
	assert.Equal(t, string(checkout.StateSucceeded), outcome.State)
	assert.False(t, f.mr.Exists("appliedDiscount:sess-1"), "persisted discount is cleared")

	view, err := f.carts.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2, "cart contents are untouched")
	f.orders.AssertExpectations(t)
}

func TestCheckoutServiceUnreadableCartSnapshot(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)
	ctx := t.Context()
	require.NoError(t, f.mr.Set("cart:sess-1", "{not json"))

	// Arrange: checkout is opened first, while the snapshot is unreadable
	_, err := f.checkout.Summary(ctx, "sess-1")
	assert.Equal(t, appErrors.ErrCodeStorage, appCode(t, err))

	f.fillCart(t)
	view, err := f.carts.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	// Act
	summary, err := f.checkout.UpdateBilling(ctx, "sess-1", billingForm())
	require.NoError(t, err)
	_, err = f.checkout.Submit(ctx, "sess-1")
	require.NoError(t, err)

	f.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o *models.OrderRecord) bool {
		return len(o.CartItems) == 2 && o.Total == 35
	})).Return(nil).Once()

	outcome, err := f.checkout.Confirm(ctx, "sess-1", true)

	// Assert
	require.NoError(t, err)
	assert.Len(t, summary.Items, 2, "checkout reads the same cart as the cart page")
	assert.Equal(t, 35.0, summary.Subtotal)
	assert.Equal(t, string(checkout.StateSucceeded), outcome.State)
	require.NotNil(t, outcome.Order)
	assert.Len(t, outcome.Order.CartItems, 2)
	f.orders.AssertExpectations(t)
}

func TestCheckoutServiceDecline(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)
	ctx := t.Context()
	f.fillCart(t)

	_, err := f.checkout.ApplyDiscount(ctx, "sess-1", 4)
	require.NoError(t, err)
	_, err = f.checkout.UpdateBilling(ctx, "sess-1", billingForm())
	require.NoError(t, err)
	_, err = f.checkout.Submit(ctx, "sess-1")
	require.NoError(t, err)

	_, err = f.checkout.ApplyDiscount(ctx, "sess-1", 8)
	assert.Equal(t, appErrors.ErrCodeInvalidState, appCode(t, err))

	outcome, err := f.checkout.Confirm(ctx, "sess-1", false)

	require.NoError(t, err)
	assert.Equal(t, string(checkout.StateEditing), outcome.State)
	assert.True(t, f.mr.Exists("appliedDiscount:sess-1"))
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCheckoutServiceRejectsInvalidForm(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)
	form := billingForm()
	form.Email = ""

	_, err := f.checkout.UpdateBilling(t.Context(), "sess-1", form)
	require.NoError(t, err)

	outcome, err := f.checkout.Submit(t.Context(), "sess-1")

	require.NoError(t, err)
	assert.Equal(t, string(checkout.StateRejected), outcome.State)
	assert.True(t, outcome.Invalid["email"])
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.NotificationError, f.notifier.sent[0].Level)
}

func TestCheckoutServicePersistenceFailure(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)
	ctx := t.Context()
	f.fillCart(t)

	_, err := f.checkout.UpdateBilling(ctx, "sess-1", billingForm())
	require.NoError(t, err)
	_, err = f.checkout.Submit(ctx, "sess-1")
	require.NoError(t, err)

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	outcome, err := f.checkout.Confirm(ctx, "sess-1", true)

	require.NoError(t, err)
	assert.Equal(t, string(checkout.StateFailed), outcome.State)

	summary, err := f.checkout.Summary(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, billingForm(), summary.Form)
}

func TestCheckoutServiceConfirmWithoutSubmit(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)

	_, err := f.checkout.Confirm(t.Context(), "sess-1", true)

	assert.Equal(t, appErrors.ErrCodeInvalidState, appCode(t, err))
}

func TestCheckoutServiceNegativeDiscount(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyClamp)

	_, err := f.checkout.ApplyDiscount(t.Context(), "sess-1", -3)

	assert.Equal(t, appErrors.ErrCodeValidation, appCode(t, err))
}

func TestCheckoutServiceEnd(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)
	ctx := t.Context()
	f.fillCart(t)

	_, err := f.checkout.UpdateBilling(ctx, "sess-1", billingForm())
	require.NoError(t, err)

	f.checkout.End("sess-1")

	summary, err := f.checkout.Summary(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, string(checkout.StateIdle), summary.State)
	assert.Empty(t, summary.Form.FirstName)
	assert.Len(t, summary.Items, 2)
}

func TestCheckoutServiceDiscountStorageDown(t *testing.T) {
	f := newCheckoutFixture(t, checkout.PolicyNone)
	f.mr.SetError("LOADING")

	_, err := f.checkout.Summary(t.Context(), "sess-1")

	assert.Equal(t, appErrors.ErrCodeStorage, appCode(t, err))
}

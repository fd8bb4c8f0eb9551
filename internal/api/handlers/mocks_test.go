package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/cart"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	args := m.Called(ctx, page, pageSize)

	products, _ := args.Get(0).([]*models.Product)

	return products, args.Int(1), args.Error(2)
}

func (m *mockProductService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)

	product, _ := args.Get(0).(*models.Product)

	return product, args.Error(1)
}

func (m *mockProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)

	product, _ := args.Get(0).(*models.Product)

	return product, args.Error(1)
}

type mockCartService struct {
	mock.Mock
}

func (m *mockCartService) view(args mock.Arguments) (*models.CartView, error) {
	view, _ := args.Get(0).(*models.CartView)

	return view, args.Error(1)
}

func (m *mockCartService) GetCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *mockCartService) AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.CartView, error) {
	return m.view(m.Called(ctx, sessionID, req))
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*models.CartView, error) {
	return m.view(m.Called(ctx, sessionID, productID, quantity))
}

func (m *mockCartService) RemoveItem(ctx context.Context, sessionID, productID string) (*models.CartView, error) {
	return m.view(m.Called(ctx, sessionID, productID))
}

func (m *mockCartService) ClearCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *mockCartService) Store(ctx context.Context, sessionID string) (*cart.Store, error) {
	args := m.Called(ctx, sessionID)

	store, _ := args.Get(0).(*cart.Store)

	return store, args.Error(1)
}

func (m *mockCartService) EndSession(sessionID string) {
	m.Called(sessionID)
}

type mockCheckoutService struct {
	mock.Mock
}

func (m *mockCheckoutService) summary(args mock.Arguments) (*models.CheckoutSummary, error) {
	summary, _ := args.Get(0).(*models.CheckoutSummary)

	return summary, args.Error(1)
}

func (m *mockCheckoutService) outcome(args mock.Arguments) (*models.CheckoutOutcome, error) {
	outcome, _ := args.Get(0).(*models.CheckoutOutcome)

	return outcome, args.Error(1)
}

func (m *mockCheckoutService) Summary(ctx context.Context, sessionID string) (*models.CheckoutSummary, error) {
	return m.summary(m.Called(ctx, sessionID))
}

func (m *mockCheckoutService) UpdateBilling(ctx context.Context, sessionID string, form models.BillingForm) (*models.CheckoutSummary, error) {
	return m.summary(m.Called(ctx, sessionID, form))
}

func (m *mockCheckoutService) ApplyDiscount(ctx context.Context, sessionID string, amount float64) (*models.CheckoutSummary, error) {
	return m.summary(m.Called(ctx, sessionID, amount))
}

func (m *mockCheckoutService) Submit(ctx context.Context, sessionID string) (*models.CheckoutOutcome, error) {
	return m.outcome(m.Called(ctx, sessionID))
}

func (m *mockCheckoutService) Confirm(ctx context.Context, sessionID string, proceed bool) (*models.CheckoutOutcome, error) {
	return m.outcome(m.Called(ctx, sessionID, proceed))
}

func (m *mockCheckoutService) End(sessionID string) {
	m.Called(sessionID)
}

type mockOrderFinder struct {
	mock.Mock
}

func (m *mockOrderFinder) GetOrder(ctx context.Context, sessionID string, id uuid.UUID) (*models.OrderRecord, error) {
	args := m.Called(ctx, sessionID, id)

	order, _ := args.Get(0).(*models.OrderRecord)

	return order, args.Error(1)
}

// decodeResponse unmarshals the envelope and, when data is non-nil, its payload.
func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, data any) response.APIResponse {
	t.Helper()

	var envelope struct {
		response.APIResponse
		Data json.RawMessage `json:"data"`
	}

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))

	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}

	return envelope.APIResponse
}

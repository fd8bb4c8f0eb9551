package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

func newCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return cache.NewRedisCache(client, &config.CacheConfig{DefaultTTL: time.Minute}), mr
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) ListProducts(ctx context.Context, page, size int) ([]*models.Product, int, error) {
	args := m.Called(ctx, page, size)

	products, _ := args.Get(0).([]*models.Product)

	return products, args.Int(1), args.Error(2)
}

func (m *mockProductRepo) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)

	product, _ := args.Get(0).(*models.Product)

	return product, args.Error(1)
}

func (m *mockProductRepo) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)

	product, _ := args.Get(0).(*models.Product)

	return product, args.Error(1)
}

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, order *models.OrderRecord) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderStore) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.OrderRecord, error) {
	args := m.Called(ctx, id)

	order, _ := args.Get(0).(*models.OrderRecord)

	return order, args.Error(1)
}

type mockEmailService struct {
	mock.Mock
}

func (m *mockEmailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {
	return m.Called(ctx, req).Error(0)
}

var (
	linenShirt = &models.Product{ID: "prod-linen-shirt", Name: "Linen Shirt", Slug: "linen-shirt", Price: 10, Status: models.ProductStatusInStock}
	canvasTote = &models.Product{ID: "prod-canvas-tote", Name: "Canvas Tote", Slug: "canvas-tote", Price: 5, Status: models.ProductStatusInStock}
	woolCap    = &models.Product{ID: "prod-wool-cap", Name: "Wool Cap", Slug: "wool-cap", Price: 24.5, Status: models.ProductStatusOutOfStock}
)

func billingForm() models.BillingForm {
	return models.BillingForm{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Address: "12 St James's Square",
		Country: "United Kingdom", City: "London", ZipCode: "SW1Y 4JH", Phone: "+44 20 7946 0000",
	}
}

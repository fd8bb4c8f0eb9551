package handlers_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestListProducts(t *testing.T) {
	products := []*models.Product{
		{ID: "prod-linen-shirt", Name: "Linen Shirt", Slug: "linen-shirt", Price: 49.9, Status: models.ProductStatusInStock},
	}

	tests := []struct {
		name           string
		target         string
		setupMock      func(m *mockProductService)
		expectedStatus int
		expectedPage   int
	}{
		{
			name:   "Success - Defaults",
			target: "/api/v1/products",
			setupMock: func(m *mockProductService) {
				m.On("ListProducts", mock.Anything, 1, 10).Return(products, 1, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedPage:   1,
		},
		{
			name:   "Success - Explicit page",
			target: "/api/v1/products?page=2&pageSize=5",
			setupMock: func(m *mockProductService) {
				m.On("ListProducts", mock.Anything, 2, 5).Return([]*models.Product{}, 1, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedPage:   2,
		},
		{
			name:           "Fail - Non numeric page",
			target:         "/api/v1/products?page=two",
			setupMock:      func(m *mockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Fail - Service error",
			target: "/api/v1/products",
			setupMock: func(m *mockProductService) {
				m.On("ListProducts", mock.Anything, 1, 10).Return(nil, 0, appErrors.DatabaseError("Failed to list products")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			svc := new(mockProductService)
			tc.setupMock(svc)
			handler := handlers.NewProductHandler(svc)
			req := testutils.CreateTestRequestWithoutSession(http.MethodGet, tc.target, nil, nil)
			rr := httptest.NewRecorder()

			// Act
			handler.ListProducts()(rr, req)

			// Assert
			assert.Equal(t, tc.expectedStatus, rr.Code)

			if tc.expectedStatus == http.StatusOK {
				var page models.PaginatedResponse
				resp := decodeResponse(t, rr, &page)
				assert.True(t, resp.Success)
				assert.Equal(t, tc.expectedPage, page.Page)
				assert.Equal(t, 1, page.Total)
			}

			svc.AssertExpectations(t)
		})
	}
}

func TestGetProduct(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(mockProductService)
		product := &models.Product{ID: "prod-wool-cap", Slug: "wool-cap", Name: "Wool Cap", Status: models.ProductStatusOutOfStock}
		svc.On("GetProductBySlug", mock.Anything, "wool-cap").Return(product, nil).Once()

		req := testutils.CreateTestRequestWithoutSession(http.MethodGet, "/api/v1/products/wool-cap", nil, map[string]string{"slug": "wool-cap"})
		rr := httptest.NewRecorder()

		handlers.NewProductHandler(svc).GetProduct()(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.Product
		decodeResponse(t, rr, &got)
		assert.Equal(t, "Wool Cap", got.Name)
		assert.False(t, got.InStock())
	})

	t.Run("Not found", func(t *testing.T) {
		svc := new(mockProductService)
		svc.On("GetProductBySlug", mock.Anything, "nope").
			Return(nil, appErrors.NotFoundError("Product not found").WithError(sql.ErrNoRows)).Once()

		req := testutils.CreateTestRequestWithoutSession(http.MethodGet, "/api/v1/products/nope", nil, map[string]string{"slug": "nope"})
		rr := httptest.NewRecorder()

		handlers.NewProductHandler(svc).GetProduct()(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), appErrors.ErrCodeNotFound)
	})
}

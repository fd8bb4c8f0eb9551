package service_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetProductBySlug(t *testing.T) {
	t.Run("Second read is served from cache", func(t *testing.T) {
		repo := new(mockProductRepo)
		c, mr := newCache(t)
		svc := service.NewProductService(repo, c, time.Minute)

		repo.On("GetProductBySlug", mock.Anything, "linen-shirt").Return(linenShirt, nil).Once()

		first, err := svc.GetProductBySlug(t.Context(), "linen-shirt")
		require.NoError(t, err)
		second, err := svc.GetProductBySlug(t.Context(), "linen-shirt")
		require.NoError(t, err)

		assert.Equal(t, linenShirt.ID, first.ID)
		assert.Equal(t, first, second)
		assert.True(t, mr.Exists("product_slug:linen-shirt"))
		repo.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		repo := new(mockProductRepo)
		c, _ := newCache(t)
		svc := service.NewProductService(repo, c, time.Minute)

		repo.On("GetProductBySlug", mock.Anything, "missing").Return(nil, sql.ErrNoRows).Once()

		product, err := svc.GetProductBySlug(t.Context(), "missing")

		assert.Nil(t, product)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Cache outage falls back to the database", func(t *testing.T) {
		repo := new(mockProductRepo)
		c, mr := newCache(t)
		svc := service.NewProductService(repo, c, time.Minute)
		mr.SetError("LOADING")

		repo.On("GetProductBySlug", mock.Anything, "linen-shirt").Return(linenShirt, nil).Twice()

		for range 2 {
			product, err := svc.GetProductBySlug(t.Context(), "linen-shirt")
			require.NoError(t, err)
			assert.Equal(t, "Linen Shirt", product.Name)
		}

		repo.AssertExpectations(t)
	})
}

func TestGetProductByID(t *testing.T) {
	repo := new(mockProductRepo)
	c, _ := newCache(t)
	svc := service.NewProductService(repo, c, time.Minute)

	repo.On("GetProductByID", mock.Anything, "prod-x").Return(nil, errors.New("connection refused")).Once()

	_, err := svc.GetProductByID(t.Context(), "prod-x")

	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
}

func TestListProducts(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"Defaults for invalid input", 0, 0, 1, 10},
		{"Oversized page", 2, 500, 2, 10},
		{"Valid", 3, 20, 3, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockProductRepo)
			c, _ := newCache(t)
			svc := service.NewProductService(repo, c, time.Minute)

			repo.On("ListProducts", mock.Anything, tt.wantPage, tt.wantSz).
				Return([]*models.Product{linenShirt, canvasTote}, 2, nil).Once()

			products, total, err := svc.ListProducts(t.Context(), tt.page, tt.size)
			require.NoError(t, err)
			assert.Len(t, products, 2)
			assert.Equal(t, 2, total)

			_, _, err = svc.ListProducts(t.Context(), tt.page, tt.size)
			require.NoError(t, err)

			repo.AssertExpectations(t)
		})
	}
}

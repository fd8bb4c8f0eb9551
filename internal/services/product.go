package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"golang.org/x/sync/singleflight"
)

const maxPageSize = 50

// ProductService is the cached, read-only product catalog.
type ProductService interface {
	ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

type productService struct {
	repo  repository.ProductRepository
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

func NewProductService(repo repository.ProductRepository, c cache.Cache, ttl time.Duration) ProductService {
	return &productService{repo: repo, cache: c, ttl: ttl}
}

type productPage struct {
	Products []*models.Product `json:"products"`
	Total    int               `json:"total"`
}

func (s *productService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {

	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 10
	}

	key := cache.ProductPageKey(page, pageSize)

	v, err := s.readThrough(ctx, key, &productPage{}, func() (any, error) {
		products, total, err := s.repo.ListProducts(ctx, page, pageSize)
		if err != nil {
			return nil, appErrors.DatabaseError("Failed to fetch products").WithError(err)
		}

		return &productPage{Products: products, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	result := v.(*productPage)

	return result.Products, result.Total, nil
}

func (s *productService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {

	v, err := s.readThrough(ctx, cache.Key(cache.ProductSlugKeyPrefix, slug), &models.Product{}, func() (any, error) {
		product, err := s.repo.GetProductBySlug(ctx, slug)

		return product, lookupError(err)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Product), nil
}

func (s *productService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {

	v, err := s.readThrough(ctx, cache.Key(cache.ProductKeyPrefix, id), &models.Product{}, func() (any, error) {
		product, err := s.repo.GetProductByID(ctx, id)

		return product, lookupError(err)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Product), nil
}

func lookupError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.NotFoundError("Product not found").WithError(err)
	default:
		return appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}
}

// readThrough serves key from the cache, or loads it once for all concurrent
// callers and caches the result. Cache failures only cost a database read.
func (s *productService) readThrough(ctx context.Context, key string, dest any, load func() (any, error)) (any, error) {

	logger := middleware.LoggerFromContext(ctx)

	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("Catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if found {
		return dest, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		value, err := load()
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
			logger.Warn("Catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}

		return value, nil
	})

	return v, err
}

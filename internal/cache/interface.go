package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a JSON key/value store. It backs the catalog read-through cache and
// the session-local state (cart snapshots, applied discounts).
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	ProductKeyPrefix     = "product"
	ProductSlugKeyPrefix = "product_slug"
	ProductPageKeyPrefix = "products"
	OrderKeyPrefix       = "order"
	CartKeyPrefix        = "cart"
	DiscountKeyPrefix    = "appliedDiscount"
)

func ProductPageKey(page, size int) string {
	return Key(ProductPageKeyPrefix, fmt.Sprintf("%d:%d", page, size))
}

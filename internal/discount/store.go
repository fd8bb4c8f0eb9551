// Package discount keeps the flat discount applied to a session. It is stored
// apart from the cart so that it outlives a single checkout visit.
package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/cache"
)

var ErrNegativeAmount = errors.New("discount: amount must not be negative")

type Storage interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Store struct {
	storage Storage
	ttl     time.Duration
}

func NewStore(storage Storage, ttl time.Duration) *Store {
	return &Store{storage: storage, ttl: ttl}
}

func key(sessionID string) string {
	return cache.Key(cache.DiscountKeyPrefix, sessionID)
}

// Load returns the session's discount, or 0 when none was applied.
func (s *Store) Load(ctx context.Context, sessionID string) (float64, error) {

	var amount float64

	found, err := s.storage.Get(ctx, key(sessionID), &amount)
	if err != nil {
		return 0, fmt.Errorf("load discount: %w", err)
	}

	if !found || amount < 0 {
		return 0, nil
	}

	return amount, nil
}

func (s *Store) Apply(ctx context.Context, sessionID string, amount float64) error {

	if amount < 0 {
		return ErrNegativeAmount
	}

	if err := s.storage.Set(ctx, key(sessionID), amount, s.ttl); err != nil {
		return fmt.Errorf("apply discount: %w", err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {

	if err := s.storage.Delete(ctx, key(sessionID)); err != nil {
		return fmt.Errorf("clear discount: %w", err)
	}

	return nil
}

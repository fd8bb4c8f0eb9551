// Package cart owns the line items of one storefront session and mirrors
// every mutation into a key/value store.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/models"
)

var (
	ErrItemNotFound    = errors.New("cart: item not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	ErrNoSession       = errors.New("cart: session id is required")
)

// Storage is the durable key/value collaborator. cache.Cache satisfies it.
type Storage interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// StorageError reports a failed snapshot read or write. The in-memory cart is
// still valid when it is returned.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cart storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the single writer of a session's cart. Reads return copies.
type Store struct {
	mu        sync.Mutex
	sessionID string
	prefix    string
	ttl       time.Duration
	storage   Storage
	logger    *slog.Logger
	items     []models.CartLineItem
	persisted bool
}

// Open builds the cart for sessionID and loads its persisted snapshot. When the
// snapshot cannot be read the returned Store is empty and usable, and the error
// is a *StorageError.
func Open(ctx context.Context, sessionID string, storage Storage, opts ...Option) (*Store, error) {

	if sessionID == "" {
		return nil, ErrNoSession
	}

	s := &Store{
		sessionID: sessionID,
		prefix:    cache.CartKeyPrefix,
		storage:   storage,
		logger:    slog.Default(),
		persisted: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	var stored []models.CartLineItem

	found, err := storage.Get(ctx, s.key(), &stored)
	if err != nil {
		s.persisted = false
		s.logger.Warn("Failed to load cart snapshot", slog.String("sessionID", sessionID), slog.String("error", err.Error()))

		return s, &StorageError{Op: "load", Key: s.key(), Err: err}
	}

	if found {
		s.items = normalize(stored)
	}

	return s, nil
}

func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) key() string {
	return cache.Key(s.prefix, s.sessionID)
}

// AddItem increments the quantity of an existing line or appends a new one.
func (s *Store) AddItem(ctx context.Context, p models.Product, quantity int) ([]models.CartLineItem, error) {

	if quantity < 1 {
		return s.ListItems(), ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, models.CartLineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  quantity,
			ImageRef:  p.ImageRef,
		})
	}

	return s.snapshot(), s.persist(ctx)
}

// RemoveItem deletes the line for productID. Removing an absent product changes nothing.
func (s *Store) RemoveItem(ctx context.Context, productID string) ([]models.CartLineItem, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return s.snapshot(), nil
	}

	s.items = append(s.items[:i], s.items[i+1:]...)

	return s.snapshot(), s.persist(ctx)
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) ([]models.CartLineItem, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return s.snapshot(), ErrItemNotFound
	}

	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = quantity
	}

	return s.snapshot(), s.persist(ctx)
}

func (s *Store) ListItems() []models.CartLineItem {

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// Clear empties the cart and removes its persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	if err := s.storage.Delete(ctx, s.key()); err != nil {
		s.persisted = false
		s.logger.Warn("Failed to remove cart snapshot", slog.String("sessionID", s.sessionID), slog.String("error", err.Error()))

		return &StorageError{Op: "delete", Key: s.key(), Err: err}
	}

	s.persisted = true

	return nil
}

// Persisted reports whether the last write reached storage.
func (s *Store) Persisted() bool {

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persisted
}

// TotalQuantity sums the quantities of all line items.
func (s *Store) TotalQuantity() int {

	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}

	return total
}

// persist writes the full snapshot. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {

	if err := s.storage.Set(ctx, s.key(), s.snapshot(), s.ttl); err != nil {
		s.persisted = false
		s.logger.Warn("Failed to persist cart snapshot", slog.String("sessionID", s.sessionID), slog.String("error", err.Error()))

		return &StorageError{Op: "save", Key: s.key(), Err: err}
	}

	s.persisted = true

	return nil
}

func (s *Store) snapshot() []models.CartLineItem {

	out := make([]models.CartLineItem, len(s.items))
	copy(out, s.items)

	return out
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}

	return -1
}

// normalize repairs a loaded snapshot: lines below quantity 1 are dropped and
// duplicate products are merged into the first occurrence.
func normalize(items []models.CartLineItem) []models.CartLineItem {

	out := make([]models.CartLineItem, 0, len(items))
	seen := make(map[string]int, len(items))

	for _, item := range items {
		if item.Quantity < 1 || item.ProductID == "" {
			continue
		}

		if i, ok := seen[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}

		seen[item.ProductID] = len(out)
		out = append(out, item)
	}

	return out
}

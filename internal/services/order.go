package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.OrderRecord) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.OrderRecord, error)
}

// OrderService writes orders through a circuit breaker so a failing database
// fails checkouts fast instead of holding them for the full submit timeout.
type OrderService struct {
	repo    OrderStore
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewOrderService(repo OrderStore, cfg config.CheckoutConfig) *OrderService {

	settings := gobreaker.Settings{
		Name:        "order-store",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
			metrics.SetOrderBreakerState(int(to))
		},
		// a cancelled shopper request says nothing about the database
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &OrderService{repo: repo, breaker: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (s *OrderService) CreateOrder(ctx context.Context, order *models.OrderRecord) error {

	start := time.Now()

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.repo.CreateOrder(ctx, order)
	})

	metrics.ObserveOrderPersist(time.Since(start))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return appErrors.PersistenceError("Order store is temporarily unavailable").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.TimeoutError("Order store did not respond in time").WithError(err)
	default:
		return appErrors.PersistenceError("Failed to create order").WithError(err)
	}
}

// GetOrder returns an order placed by sessionID. Orders of other sessions are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, sessionID string, id uuid.UUID) (*models.OrderRecord, error) {

	order, err := s.repo.GetOrderByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, appErrors.NotFoundError("Order not found").WithError(err)
	}

	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if order.SessionID != sessionID {
		return nil, appErrors.NotFoundError("Order not found")
	}

	return order, nil
}

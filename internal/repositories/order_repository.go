package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// CreateOrder writes the order and its lines in one transaction.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.OrderRecord) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	b := order.Billing

	query := `
		INSERT INTO orders (id, session_id, first_name, last_name, email, address, country, city, zip_code, phone, total, discount, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = tx.ExecContext(dbCtx, query, order.ID, order.SessionID, b.FirstName, b.LastName, b.Email, b.Address, b.Country, b.City, b.ZipCode, b.Phone, order.Total, order.Discount, order.OrderDate)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_ref, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	for i, item := range order.CartItems {
		if _, err := tx.ExecContext(dbCtx, itemQuery, order.ID, i, item.ProductRef, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("failed to insert an order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.OrderRecord, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.OrderRecord{ID: id}
	b := &order.Billing

	query := `
		SELECT session_id, first_name, last_name, email, address, country, city, zip_code, phone, total, discount, order_date
		FROM orders
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&order.SessionID, &b.FirstName, &b.LastName, &b.Email, &b.Address, &b.Country, &b.City, &b.ZipCode, &b.Phone, &order.Total, &order.Discount, &order.OrderDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	query = `
		SELECT product_ref, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := r.DB.QueryContext(dbCtx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}
	defer rows.Close()

	order.CartItems = []models.OrderLine{}

	for rows.Next() {
		var line models.OrderLine

		if err := rows.Scan(&line.ProductRef, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		order.CartItems = append(order.CartItems, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	return order, nil
}

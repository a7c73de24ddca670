package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/parfumarie/ecommerce-backend/internal/models"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
)

// ErrStockConflict reports that a conditional stock decrement matched no row:
// another transaction consumed the stock between validation and commit. The
// whole checkout is retryable from validation.
var ErrStockConflict = errors.New("stock changed concurrently")

type OrderRepository interface {
	CreateOrderFromCart(ctx context.Context, order *models.Order, cartID uuid.UUID) error
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

// CreateOrderFromCart persists the order, its lines, the stock decrements and
// the cart clearing as one transaction. Decrements are conditional
// (stock >= quantity), so two concurrent checkouts can never jointly oversell:
// the loser sees zero rows affected and the transaction rolls back with
// ErrStockConflict.
func (r *orderRepository) CreateOrderFromCart(ctx context.Context, order *models.Order, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}

	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	err = tx.QueryRowContext(dbCtx, orderQuery,
		order.ID, order.UserID, order.Status, order.TotalAmount).
		Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (id, order_id, product_id, product_name, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	stockQuery := `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`

	for i := range order.Lines {
		line := &order.Lines[i]

		_, err := tx.ExecContext(dbCtx, lineQuery,
			line.ID, order.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}

		result, err := tx.ExecContext(dbCtx, stockQuery, line.Quantity, line.ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}

		if affected == 0 {
			return fmt.Errorf("product %d: %w", line.ProductID, ErrStockConflict)
		}
	}

	clearQuery := `
		DELETE FROM cart_lines
		WHERE cart_id = $1
	`

	if _, err := tx.ExecContext(dbCtx, clearQuery, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

func (r *orderRepository) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{ID: orderID}

	query := `
		SELECT user_id, status, total_amount, created_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`

	err := r.DB.QueryRowContext(dbCtx, query, orderID, userID).
		Scan(&order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	linesQuery := `
		SELECT id, product_id, product_name, quantity, unit_price, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.DB.QueryContext(dbCtx, linesQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order lines: %w", err)
	}

	defer rows.Close()

	var lines []models.OrderLine

	for rows.Next() {
		var line models.OrderLine

		err := rows.Scan(&line.ID, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.UnitPrice, &line.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}

		line.OrderID = orderID
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	order.Lines = lines

	return order, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, status, total_amount, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.OrderSummary

	for rows.Next() {
		var order models.OrderSummary

		err := rows.Scan(&order.OrderID, &order.Status, &order.TotalAmount, &order.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

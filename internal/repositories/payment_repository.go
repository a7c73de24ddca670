package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/parfumarie/ecommerce-backend/internal/models"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id string) (*models.Payment, error)
}

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepo(db *sql.DB) PaymentRepository {
	return &paymentRepository{DB: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO payments (id, order_id, user_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		payment.ID, payment.OrderID, payment.UserID, payment.Amount, payment.Currency, payment.Status).
		Scan(&payment.CreatedAt, &payment.UpdatedAt)
}

func (r *paymentRepository) GetPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, order_id, user_id, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	payment := &models.Payment{}

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&payment.ID, &payment.OrderID, &payment.UserID, &payment.Amount,
			&payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return payment, nil
}

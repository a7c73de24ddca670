package service

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
)

type OrderService interface {
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, userID, orderID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error) {
	orders, err := s.orderRepo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list orders").WithError(err)
	}

	return orders, nil
}

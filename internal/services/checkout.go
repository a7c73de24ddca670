package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
	"github.com/parfumarie/ecommerce-backend/pkg/sendgrid"
)

// CheckoutService converts a cart into an order. Order creation, stock
// decrement and cart clearing happen in one transaction, so a failure at any
// point leaves the cart and the catalog untouched.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*models.CheckoutResponse, error)
}

type checkoutService struct {
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	email     sendgrid.EmailService
	logger    *slog.Logger
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	email sendgrid.EmailService,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutService{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		email:     email,
		logger:    logger,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID) (*models.CheckoutResponse, error) {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.EmptyCartError()
		}

		return nil, errors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	lines, err := s.cartRepo.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to retrieve cart lines").WithError(err)
	}

	if len(lines) == 0 {
		return nil, errors.EmptyCartError()
	}

	// Validate every line before touching the order tables. One short line
	// fails the whole checkout; there are no partial orders.
	for _, line := range lines {
		if line.Quantity > line.Stock {
			return nil, errors.InsufficientStockError(line.ProductID, line.Stock)
		}
	}

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: models.OrderStatusPending,
		Lines:  make([]models.OrderLine, 0, len(lines)),
	}

	total := decimal.Zero

	for _, line := range lines {
		subtotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)

		order.Lines = append(order.Lines, models.OrderLine{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
		})
	}

	order.TotalAmount = total

	if err := s.orderRepo.CreateOrderFromCart(ctx, order, cart.ID); err != nil {
		if stderrors.Is(err, repository.ErrStockConflict) {
			return nil, errors.ConflictError("Stock changed during checkout, please retry").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	s.sendConfirmation(ctx, userID, order)

	return &models.CheckoutResponse{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
	}, nil
}

// sendConfirmation is best effort: the order is already committed, so a mail
// failure is logged and swallowed.
func (s *checkoutService) sendConfirmation(ctx context.Context, userID uuid.UUID, order *models.Order) {
	if s.email == nil {
		return
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping order confirmation email",
			slog.String("orderId", order.ID.String()), slog.Any("error", err))

		return
	}

	subject := fmt.Sprintf("Order %s confirmed", order.ID)
	body := fmt.Sprintf("Hi %s,\n\nYour order %s for a total of %s has been received and is being prepared.\n\nThank you for shopping with us.",
		user.Name, order.ID, order.TotalAmount.StringFixed(2))

	if err := s.email.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.WarnContext(ctx, "failed to send order confirmation email",
			slog.String("orderId", order.ID.String()), slog.Any("error", err))
	}
}

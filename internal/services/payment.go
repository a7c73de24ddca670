package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
	"github.com/parfumarie/ecommerce-backend/pkg/stripe"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, userID uuid.UUID, req *models.CreatePaymentRequest) (*models.PaymentResponse, error)
	GetPayment(ctx context.Context, userID uuid.UUID, paymentID string) (*models.Payment, error)
}

type paymentService struct {
	paymentRepo     repository.PaymentRepository
	orderRepo       repository.OrderRepository
	stripeClient    stripe.Client
	defaultCurrency string
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	stripeClient stripe.Client,
	defaultCurrency string,
) PaymentService {
	return &paymentService{
		paymentRepo:     paymentRepo,
		orderRepo:       orderRepo,
		stripeClient:    stripeClient,
		defaultCurrency: defaultCurrency,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, userID uuid.UUID, req *models.CreatePaymentRequest) (*models.PaymentResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, userID, req.OrderID)
	if err != nil {
		return nil, errors.NotFoundError("Order not found").WithError(err)
	}

	if order.Status != models.OrderStatusPending {
		return nil, errors.BadRequestError("Order is not awaiting payment")
	}

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	// Stripe wants the amount in the currency's smallest unit.
	amountCents := order.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()

	intent, err := s.stripeClient.CreatePaymentIntent(ctx, amountCents, currency, order.ID.String())
	if err != nil {
		return nil, errors.ThirdPartyError("Failed to create payment intent").WithError(err)
	}

	payment := &models.Payment{
		ID:       intent.ID,
		OrderID:  order.ID,
		UserID:   userID,
		Amount:   order.TotalAmount,
		Currency: currency,
		Status:   models.PaymentStatusPending,
	}

	if err := s.paymentRepo.CreatePayment(ctx, payment); err != nil {
		return nil, errors.DatabaseError("Failed to record payment").WithError(err)
	}

	return &models.PaymentResponse{
		Payment:      payment,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *paymentService) GetPayment(ctx context.Context, userID uuid.UUID, paymentID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, errors.NotFoundError("Payment not found").WithError(err)
	}

	// Payments are visible only to the user who raised them.
	if payment.UserID != userID {
		return nil, errors.NotFoundError("Payment not found")
	}

	return payment, nil
}

package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	appErrors "github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/pkg/stripe"
)

type mockStripeClient struct {
	mock.Mock
}

func (m *mockStripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, orderID string) (*stripe.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency, orderID)

	if intent, ok := args.Get(0).(*stripe.PaymentIntent); ok {
		return intent, args.Error(1)
	}

	return nil, args.Error(1)
}

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success - Amount Converted To Cents", func(t *testing.T) {
		// Arrange
		mockPaymentRepo := repository.NewMockPaymentRepository()
		mockOrderRepo := repository.NewMockOrderRepository()
		stripeClient := &mockStripeClient{}
		paymentService := service.NewPaymentService(mockPaymentRepo, mockOrderRepo, stripeClient, "usd")

		order := &models.Order{
			ID:          orderID,
			UserID:      userID,
			Status:      models.OrderStatusPending,
			TotalAmount: decimal.RequireFromString("135.48"),
		}

		mockOrderRepo.On("GetOrderByID", ctx, userID, orderID).Return(order, nil).Once()
		stripeClient.On("CreatePaymentIntent", ctx, int64(13548), "usd", orderID.String()).
			Return(&stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: "requires_payment_method"}, nil).Once()
		mockPaymentRepo.On("CreatePayment", ctx, mock.MatchedBy(func(payment *models.Payment) bool {
			return payment.ID == "pi_123" &&
				payment.OrderID == orderID &&
				payment.Status == models.PaymentStatusPending
		})).Return(nil).Once()

		// Act
		result, err := paymentService.CreatePayment(ctx, userID, &models.CreatePaymentRequest{OrderID: orderID})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "pi_123_secret", result.ClientSecret)
		stripeClient.AssertExpectations(t)
		mockPaymentRepo.AssertExpectations(t)
	})

	t.Run("Failure - Order Not Awaiting Payment", func(t *testing.T) {
		// Arrange
		mockPaymentRepo := repository.NewMockPaymentRepository()
		mockOrderRepo := repository.NewMockOrderRepository()
		stripeClient := &mockStripeClient{}
		paymentService := service.NewPaymentService(mockPaymentRepo, mockOrderRepo, stripeClient, "usd")

		order := &models.Order{
			ID:          orderID,
			UserID:      userID,
			Status:      models.OrderStatusConfirmed,
			TotalAmount: decimal.RequireFromString("135.48"),
		}

		mockOrderRepo.On("GetOrderByID", ctx, userID, orderID).Return(order, nil).Once()

		// Act
		result, err := paymentService.CreatePayment(ctx, userID, &models.CreatePaymentRequest{OrderID: orderID})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, result)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
		stripeClient.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Someone Else's Order", func(t *testing.T) {
		// Arrange
		mockPaymentRepo := repository.NewMockPaymentRepository()
		mockOrderRepo := repository.NewMockOrderRepository()
		stripeClient := &mockStripeClient{}
		paymentService := service.NewPaymentService(mockPaymentRepo, mockOrderRepo, stripeClient, "usd")

		// The user-scoped lookup hides other users' orders entirely.
		mockOrderRepo.On("GetOrderByID", ctx, userID, orderID).Return(nil, sql.ErrNoRows).Once()

		// Act
		result, err := paymentService.CreatePayment(ctx, userID, &models.CreatePaymentRequest{OrderID: orderID})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, result)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestGetPayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Failure - Another User's Payment Is Invisible", func(t *testing.T) {
		// Arrange
		mockPaymentRepo := repository.NewMockPaymentRepository()
		mockOrderRepo := repository.NewMockOrderRepository()
		paymentService := service.NewPaymentService(mockPaymentRepo, mockOrderRepo, &mockStripeClient{}, "usd")

		payment := &models.Payment{
			ID:     "pi_123",
			UserID: uuid.New(),
			Amount: decimal.RequireFromString("135.48"),
		}

		mockPaymentRepo.On("GetPaymentByID", ctx, "pi_123").Return(payment, nil).Once()

		// Act
		result, err := paymentService.GetPayment(ctx, userID, "pi_123")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, result)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockPaymentRepo := repository.NewMockPaymentRepository()
		mockOrderRepo := repository.NewMockOrderRepository()
		paymentService := service.NewPaymentService(mockPaymentRepo, mockOrderRepo, &mockStripeClient{}, "usd")

		payment := &models.Payment{
			ID:     "pi_123",
			UserID: userID,
			Amount: decimal.RequireFromString("135.48"),
			Status: models.PaymentStatusPending,
		}

		mockPaymentRepo.On("GetPaymentByID", ctx, "pi_123").Return(payment, nil).Once()

		// Act
		result, err := paymentService.GetPayment(ctx, userID, "pi_123")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "pi_123", result.ID)
		mockPaymentRepo.AssertExpectations(t)
	})
}

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parfumarie/ecommerce-backend/internal/api/handlers"
	appErrors "github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
)

func TestOrderHandlerCheckout(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockCheckout := service.NewMockCheckoutService()
		mockOrders := service.NewMockOrderService()
		handler := handlers.NewOrderHandler(mockCheckout, mockOrders)

		result := &models.CheckoutResponse{
			OrderID:     uuid.New(),
			TotalAmount: decimal.RequireFromString("200.00"),
		}

		mockCheckout.On("Checkout", mock.Anything, userID).Return(result, nil).Once()

		req := authedRequest(t, http.MethodPost, "/api/v1/checkout", nil, userID)
		rec := httptest.NewRecorder()

		// Act
		handler.Checkout().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		mockCheckout.AssertExpectations(t)
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		// Arrange
		mockCheckout := service.NewMockCheckoutService()
		mockOrders := service.NewMockOrderService()
		handler := handlers.NewOrderHandler(mockCheckout, mockOrders)

		mockCheckout.On("Checkout", mock.Anything, userID).
			Return(nil, appErrors.EmptyCartError()).Once()

		req := authedRequest(t, http.MethodPost, "/api/v1/checkout", nil, userID)
		rec := httptest.NewRecorder()

		// Act
		handler.Checkout().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeEmptyCart, resp.Error.Code)
		mockCheckout.AssertExpectations(t)
	})

	t.Run("Failure - Concurrent Stock Change Returns Conflict", func(t *testing.T) {
		// Arrange
		mockCheckout := service.NewMockCheckoutService()
		mockOrders := service.NewMockOrderService()
		handler := handlers.NewOrderHandler(mockCheckout, mockOrders)

		mockCheckout.On("Checkout", mock.Anything, userID).
			Return(nil, appErrors.ConflictError("Stock changed during checkout, please retry")).Once()

		req := authedRequest(t, http.MethodPost, "/api/v1/checkout", nil, userID)
		rec := httptest.NewRecorder()

		// Act
		handler.Checkout().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeConflict, resp.Error.Code)
		mockCheckout.AssertExpectations(t)
	})
}

func TestOrderHandlerGetOrder(t *testing.T) {
	userID := uuid.New()

	t.Run("Failure - Invalid Order ID", func(t *testing.T) {
		// Arrange
		mockCheckout := service.NewMockCheckoutService()
		mockOrders := service.NewMockOrderService()
		handler := handlers.NewOrderHandler(mockCheckout, mockOrders)

		req := authedRequest(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil, userID)
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockOrders.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockCheckout := service.NewMockCheckoutService()
		mockOrders := service.NewMockOrderService()
		handler := handlers.NewOrderHandler(mockCheckout, mockOrders)

		orderID := uuid.New()
		order := &models.Order{
			ID:          orderID,
			UserID:      userID,
			Status:      models.OrderStatusPending,
			TotalAmount: decimal.RequireFromString("135.48"),
		}

		mockOrders.On("GetOrder", mock.Anything, userID, orderID).Return(order, nil).Once()

		req := authedRequest(t, http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, userID)
		req.SetPathValue("id", orderID.String())
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		mockOrders.AssertExpectations(t)
	})
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parfumarie/ecommerce-backend/internal/api/handlers"
	"github.com/parfumarie/ecommerce-backend/internal/api/middleware"
	appErrors "github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

func authedRequest(t *testing.T, method, target string, body []byte, userID uuid.UUID) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	claims := &models.Claims{UserID: userID}
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)

	return req.WithContext(ctx)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	return resp
}

func TestCartHandlerGetCart(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		view := &models.CartView{
			Items:      []models.CartLineDetail{{ProductID: 1, Quantity: 2}},
			TotalItems: 2,
			TotalPrice: decimal.RequireFromString("99.98"),
		}

		mockService.On("GetCart", mock.Anything, userID).Return(view, nil).Once()

		req := authedRequest(t, http.MethodGet, "/api/v1/cart", nil, userID)
		rec := httptest.NewRecorder()

		// Act
		handler.GetCart().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - Unauthenticated", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()

		// Act
		handler.GetCart().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockService.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
	})
}

func TestCartHandlerAddItem(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		detail := &models.CartLineDetail{
			ProductID: 1,
			Name:      "Noir Essence 50ml",
			Quantity:  2,
			Price:     decimal.RequireFromString("49.99"),
			Subtotal:  decimal.RequireFromString("99.98"),
		}

		mockService.On("AddItem", mock.Anything, userID, mock.MatchedBy(func(req *models.AddItemRequest) bool {
			return req.ProductID == 1 && req.Quantity == 2
		})).Return(detail, nil).Once()

		body := []byte(`{"product_id": 1, "quantity": 2}`)
		req := authedRequest(t, http.MethodPost, "/api/v1/cart/items", body, userID)
		rec := httptest.NewRecorder()

		// Act
		handler.AddItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - Quantity Above Cap Rejected At Validation", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		body := []byte(`{"product_id": 1, "quantity": 6}`)
		req := authedRequest(t, http.MethodPost, "/api/v1/cart/items", body, userID)
		rec := httptest.NewRecorder()

		// Act
		handler.AddItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeValidation, resp.Error.Code)
		mockService.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Insufficient Stock Carries Available Quantity", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		mockService.On("AddItem", mock.Anything, userID, mock.AnythingOfType("*models.AddItemRequest")).
			Return(nil, appErrors.InsufficientStockError(1, 3)).Once()

		body := []byte(`{"product_id": 1, "quantity": 4}`)
		req := authedRequest(t, http.MethodPost, "/api/v1/cart/items", body, userID)
		rec := httptest.NewRecorder()

		// Act
		handler.AddItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, resp.Error.Code)
		require.NotNil(t, resp.Error.Stock)
		assert.Equal(t, int64(1), resp.Error.Stock.ProductID)
		assert.Equal(t, 3, resp.Error.Stock.Available)
		mockService.AssertExpectations(t)
	})
}

func TestCartHandlerUpdateItem(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Zero Quantity Removes", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		detail := &models.CartLineDetail{ProductID: 1, Quantity: 0}

		mockService.On("UpdateItem", mock.Anything, userID, mock.MatchedBy(func(req *models.UpdateItemRequest) bool {
			return req.ProductID == 1 && req.Quantity == 0
		})).Return(detail, nil).Once()

		body := []byte(`{"quantity": 0}`)
		req := authedRequest(t, http.MethodPut, "/api/v1/cart/items/1", body, userID)
		req.SetPathValue("product_id", "1")
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Product ID In Path", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		body := []byte(`{"quantity": 1}`)
		req := authedRequest(t, http.MethodPut, "/api/v1/cart/items/abc", body, userID)
		req.SetPathValue("product_id", "abc")
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCartHandlerRemoveItem(t *testing.T) {
	userID := uuid.New()

	t.Run("Failure - Item Not In Cart", func(t *testing.T) {
		// Arrange
		mockService := service.NewMockCartService()
		handler := handlers.NewCartHandler(mockService)

		mockService.On("RemoveItem", mock.Anything, userID, int64(9)).
			Return(appErrors.NotFoundError("Cart item not found")).Once()

		req := authedRequest(t, http.MethodDelete, "/api/v1/cart/items/9", nil, userID)
		req.SetPathValue("product_id", "9")
		rec := httptest.NewRecorder()

		// Act
		handler.RemoveItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})
}

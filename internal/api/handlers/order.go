package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/parfumarie/ecommerce-backend/internal/api/middleware"
	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/metrics"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

type OrderHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
}

func NewOrderHandler(checkoutService service.CheckoutService, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
	}
}

func (h *OrderHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		result, err := h.checkoutService.Checkout(r.Context(), claims.UserID)
		if err != nil {
			metrics.RecordCheckout(checkoutOutcome(err))
			logger.Warn("Checkout failed", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		metrics.RecordCheckout("success")
		logger.Info("Checkout completed",
			slog.String("orderId", result.OrderID.String()),
			slog.String("total", result.TotalAmount.StringFixed(2)))

		response.Success(w, http.StatusCreated, result)
	}
}

func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		orders, err := h.orderService.ListOrders(r.Context(), claims.UserID)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}

func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		orderID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid order ID"))

			return
		}

		order, err := h.orderService.GetOrder(r.Context(), claims.UserID, orderID)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

func checkoutOutcome(err error) string {
	appErr, ok := errors.IsAppError(err)
	if !ok {
		return "error"
	}

	switch appErr.Code {
	case errors.ErrCodeEmptyCart:
		return "empty_cart"
	case errors.ErrCodeInsufficientStock:
		return "insufficient_stock"
	case errors.ErrCodeConflict:
		return "conflict"
	default:
		return "error"
	}
}

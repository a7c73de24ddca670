package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/parfumarie/ecommerce-backend/internal/api/middleware"
	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	validator      *validator.Validate
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validator:      validator.New(),
	}
}

func (h *PaymentHandler) CreatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CreatePaymentRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		payment, err := h.paymentService.CreatePayment(r.Context(), claims.UserID, &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, payment)
	}
}

func (h *PaymentHandler) GetPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		paymentID := r.PathValue("id")
		if paymentID == "" {
			response.Error(w, errors.BadRequestError("Payment ID is required"))

			return
		}

		payment, err := h.paymentService.GetPayment(r.Context(), claims.UserID, paymentID)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, payment)
	}
}

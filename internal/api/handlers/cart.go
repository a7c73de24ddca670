package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/parfumarie/ecommerce-backend/internal/api/middleware"
	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		line, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Warn("Failed to add cart item", "error", err)
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, line)
	}
}

func (h *CartHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		productID, err := strconv.ParseInt(r.PathValue("product_id"), 10, 64)
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid product ID"))

			return
		}

		var req models.UpdateItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		req.ProductID = productID

		line, err := h.cartService.UpdateItem(r.Context(), claims.UserID, &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, line)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		productID, err := strconv.ParseInt(r.PathValue("product_id"), 10, 64)
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid product ID"))

			return
		}

		if err := h.cartService.RemoveItem(r.Context(), claims.UserID, productID); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]string{"message": "Item removed"})
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		if err := h.cartService.Clear(r.Context(), claims.UserID); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
	}
}

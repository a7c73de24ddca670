package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

type ProductHandler struct {
	productService service.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validator:      validator.New(),
	}
}

func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.productService.CreateProduct(r.Context(), &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, product)
	}
}

func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid product ID"))

			return
		}

		product, err := h.productService.GetProductByID(r.Context(), id)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) GetProductBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		if slug == "" {
			response.Error(w, errors.BadRequestError("Product slug is required"))

			return
		}

		product, err := h.productService.GetProductBySlug(r.Context(), slug)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r)
		if err != nil {
			response.Error(w, err)

			return
		}

		products, err := h.productService.ListProducts(r.Context(), filter)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, products)
	}
}

func (h *ProductHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid product ID"))

			return
		}

		var req models.UpdateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.productService.UpdateProduct(r.Context(), id, &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func filterFromQuery(r *http.Request) (models.ProductFilter, error) {
	filter := models.ProductFilter{
		CategorySlug: r.URL.Query().Get("category"),
		TargetGender: r.URL.Query().Get("gender"),
		ActiveOnly:   true,
	}

	if raw := r.URL.Query().Get("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.BadRequestError("Invalid min_price")
		}

		filter.MinPrice = &price
	}

	if raw := r.URL.Query().Get("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.BadRequestError("Invalid max_price")
		}

		filter.MaxPrice = &price
	}

	return filter, nil
}

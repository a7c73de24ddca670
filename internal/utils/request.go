package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

func DecodeJSONBody(r *http.Request, dest any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}

		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

// ParseAndValidate decodes the body into dest and runs struct validation.
// It writes the error response itself and reports whether the caller may
// proceed.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {
	if err := DecodeJSONBody(r, dest); err != nil {
		response.WriteJson(w, http.StatusBadRequest, response.APIResponse{
			Success: false,
			Error: &response.ErrorResponse{
				Code:    "BAD_REQUEST",
				Message: err.Error(),
			},
		})

		return false
	}

	if err := validate.Struct(dest); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
			return false
		}

		response.Error(w, err)

		return false
	}

	return true
}

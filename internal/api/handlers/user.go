package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/parfumarie/ecommerce-backend/internal/api/middleware"
	"github.com/parfumarie/ecommerce-backend/internal/config"
	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	service "github.com/parfumarie/ecommerce-backend/internal/services"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

type UserHandler struct {
	userService service.UserService
	security    *config.Security
	validator   *validator.Validate
}

func NewUserHandler(userService service.UserService, security *config.Security) *UserHandler {
	return &UserHandler{
		userService: userService,
		security:    security,
		validator:   validator.New(),
	}
}

func (h *UserHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		user, err := h.userService.Register(r.Context(), &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, user)
	}
}

// Login issues the session token in an HttpOnly cookie so browser scripts
// never see it.
func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		result, err := h.userService.Login(r.Context(), &req)
		if err != nil {
			// Rate-limited and bad-credential failures carry a partial result
			// with retry hints worth returning alongside the error.
			if appErr, ok := errors.IsAppError(err); ok && result != nil {
				response.WriteJson(w, appErr.StatusCode, response.APIResponse{
					Success: false,
					Data:    result,
					Error: &response.ErrorResponse{
						Code:    appErr.Code,
						Message: appErr.Message,
					},
				})

				return
			}

			response.Error(w, err)

			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     h.security.SessionCookie,
			Value:    result.Token,
			Path:     "/",
			Expires:  time.Now().Add(h.security.SessionTTL),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})

		response.Success(w, http.StatusOK, result)
	}
}

func (h *UserHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     h.security.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})

		response.Success(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

func (h *UserHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		user, err := h.userService.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, user)
	}
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	"github.com/parfumarie/ecommerce-backend/internal/utils/response"
)

type userContextKey string

const UserContextKey = userContextKey("user")

type AuthMiddleware struct {
	jwtKey     []byte
	cookieName string
}

func NewAuthMiddleware(jwtKey []byte, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{jwtKey: jwtKey, cookieName: cookieName}
}

// Authenticate reads the session token from the session cookie, falling back
// to a Bearer Authorization header for non-browser clients.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())

		tokenString := m.tokenFromRequest(r)
		if tokenString == "" {
			logger.Warn("Missing session token")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		claims := &models.Claims{}

		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				logger.Error("Unexpected signing method in session token", slog.Any("alg", t.Header["alg"]))

				return nil, errors.UnauthorizedError("unexpected signing method")
			}

			return m.jwtKey, nil
		})

		if err != nil || !token.Valid {
			logger.Warn("Invalid or expired session token", slog.Any("error", err))
			response.Error(w, errors.UnauthorizedError("Invalid or expired session"))

			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (m *AuthMiddleware) tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")

	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// ClaimsFromContext returns the authenticated user's claims, or nil when the
// request never passed through Authenticate.
func ClaimsFromContext(ctx context.Context) *models.Claims {
	if claims, ok := ctx.Value(UserContextKey).(*models.Claims); ok {
		return claims
	}

	return nil
}

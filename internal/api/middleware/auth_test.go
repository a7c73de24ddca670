package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parfumarie/ecommerce-backend/internal/api/middleware"
	"github.com/parfumarie/ecommerce-backend/internal/models"
)

const testCookie = "session"

var testKey = []byte("test-signing-key")

func signedToken(t *testing.T, userID uuid.UUID, key []byte, expiresAt time.Time) string {
	t.Helper()

	claims := &models.Claims{
		UserID: userID,
		Email:  "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	nextCalled := func() (*bool, http.Handler) {
		called := false

		return &called, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true

			claims := middleware.ClaimsFromContext(r.Context())
			assert.NotNil(t, claims)
			assert.Equal(t, userID, claims.UserID)
		})
	}

	t.Run("Success - Session Cookie", func(t *testing.T) {
		// Arrange
		auth := middleware.NewAuthMiddleware(testKey, testCookie)
		called, next := nextCalled()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.AddCookie(&http.Cookie{
			Name:  testCookie,
			Value: signedToken(t, userID, testKey, time.Now().Add(time.Hour)),
		})
		rec := httptest.NewRecorder()

		// Act
		auth.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
	})

	t.Run("Success - Bearer Header Fallback", func(t *testing.T) {
		// Arrange
		auth := middleware.NewAuthMiddleware(testKey, testCookie)
		called, next := nextCalled()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, userID, testKey, time.Now().Add(time.Hour)))
		rec := httptest.NewRecorder()

		// Act
		auth.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
	})

	t.Run("Failure - Missing Token", func(t *testing.T) {
		// Arrange
		auth := middleware.NewAuthMiddleware(testKey, testCookie)
		called, next := nextCalled()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()

		// Act
		auth.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})

	t.Run("Failure - Expired Token", func(t *testing.T) {
		// Arrange
		auth := middleware.NewAuthMiddleware(testKey, testCookie)
		called, next := nextCalled()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.AddCookie(&http.Cookie{
			Name:  testCookie,
			Value: signedToken(t, userID, testKey, time.Now().Add(-time.Hour)),
		})
		rec := httptest.NewRecorder()

		// Act
		auth.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})

	t.Run("Failure - Wrong Signing Key", func(t *testing.T) {
		// Arrange
		auth := middleware.NewAuthMiddleware(testKey, testCookie)
		called, next := nextCalled()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.AddCookie(&http.Cookie{
			Name:  testCookie,
			Value: signedToken(t, userID, []byte("other-key"), time.Now().Add(time.Hour)),
		})
		rec := httptest.NewRecorder()

		// Act
		auth.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})
}

package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
)

func newOrderRepoMock(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return repository.NewOrderRepo(db), mock
}

func testOrder(userID uuid.UUID) *models.Order {
	orderID := uuid.New()

	return &models.Order{
		ID:          orderID,
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("135.48"),
		Lines: []models.OrderLine{
			{
				ID:          uuid.New(),
				OrderID:     orderID,
				ProductID:   1,
				ProductName: "Noir Essence 50ml",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("49.99"),
			},
			{
				ID:          uuid.New(),
				OrderID:     orderID,
				ProductID:   2,
				ProductName: "Fleur Blanche 30ml",
				Quantity:    1,
				UnitPrice:   decimal.RequireFromString("35.50"),
			},
		},
	}
}

func TestCreateOrderFromCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	cartID := uuid.New()

	t.Run("Success - Commits Order, Stock And Cart Clearing Together", func(t *testing.T) {
		// Arrange
		repo, mock := newOrderRepoMock(t)
		order := testOrder(userID)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
			WithArgs(order.ID, order.UserID, order.Status, order.TotalAmount).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		for _, line := range order.Lines {
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_lines")).
				WithArgs(line.ID, order.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
				WithArgs(line.Quantity, line.ProductID).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_lines")).
			WithArgs(cartID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		// Act
		err := repo.CreateOrderFromCart(ctx, order, cartID)

		// Assert
		assert.NoError(t, err)
		assert.False(t, order.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Conditional Decrement Misses And Rolls Back", func(t *testing.T) {
		// Arrange
		repo, mock := newOrderRepoMock(t)
		order := testOrder(userID)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
			WithArgs(order.ID, order.UserID, order.Status, order.TotalAmount).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		// First line goes through, the second finds the stock already taken.
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_lines")).
			WithArgs(order.Lines[0].ID, order.ID, order.Lines[0].ProductID,
				order.Lines[0].ProductName, order.Lines[0].Quantity, order.Lines[0].UnitPrice).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
			WithArgs(order.Lines[0].Quantity, order.Lines[0].ProductID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_lines")).
			WithArgs(order.Lines[1].ID, order.ID, order.Lines[1].ProductID,
				order.Lines[1].ProductName, order.Lines[1].Quantity, order.Lines[1].UnitPrice).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
			WithArgs(order.Lines[1].Quantity, order.Lines[1].ProductID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectRollback()

		// Act
		err := repo.CreateOrderFromCart(ctx, order, cartID)

		// Assert
		assert.ErrorIs(t, err, repository.ErrStockConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetOrderByID(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success - Scoped To The Requesting User", func(t *testing.T) {
		// Arrange
		repo, mock := newOrderRepoMock(t)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
			WithArgs(orderID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "total_amount", "created_at"}).
				AddRow(userID, "pending", "135.48", now))

		mock.ExpectQuery(regexp.QuoteMeta("FROM order_lines")).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "product_name", "quantity", "unit_price", "created_at"}).
				AddRow(uuid.New(), int64(1), "Noir Essence 50ml", 2, "49.99", now).
				AddRow(uuid.New(), int64(2), "Fleur Blanche 30ml", 1, "35.50", now))

		// Act
		order, err := repo.GetOrderByID(ctx, userID, orderID)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		require.Len(t, order.Lines, 2)
		assert.Equal(t, "49.99", order.Lines[0].UnitPrice.StringFixed(2))
		assert.Equal(t, orderID, order.Lines[0].OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListOrdersByUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success - Newest First", func(t *testing.T) {
		// Arrange
		repo, mock := newOrderRepoMock(t)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "total_amount", "created_at"}).
				AddRow(uuid.New(), "confirmed", "135.48", now).
				AddRow(uuid.New(), "pending", "49.99", now.Add(-time.Hour)))

		// Act
		orders, err := repo.ListOrdersByUser(ctx, userID)

		// Assert
		assert.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, models.OrderStatusConfirmed, orders[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/parfumarie/ecommerce-backend/internal/models"
)

// Hand-rolled testify mocks for the repository interfaces, shared by the
// service-level tests.

type MockCartRepository struct {
	mock.Mock
}

func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{}
}

func (m *MockCartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) GetLine(ctx context.Context, cartID uuid.UUID, productID int64) (*models.CartLine, error) {
	args := m.Called(ctx, cartID, productID)
	if line, ok := args.Get(0).(*models.CartLine); ok {
		return line, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) GetLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLineDetail, error) {
	args := m.Called(ctx, cartID)
	if lines, ok := args.Get(0).([]models.CartLineDetail); ok {
		return lines, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) UpsertLine(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartLine, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	if line, ok := args.Get(0).(*models.CartLine); ok {
		return line, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) DeleteLine(ctx context.Context, cartID uuid.UUID, productID int64) (int64, error) {
	args := m.Called(ctx, cartID, productID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

func (m *MockCartRepository) MergeDuplicateLines(ctx context.Context, cartID uuid.UUID, productID int64) error {
	args := m.Called(ctx, cartID, productID)

	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{}
}

func (m *MockProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)

	return args.Error(0)
}

func (m *MockProductRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductRepository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)
	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	args := m.Called(ctx, filter)
	if products, ok := args.Get(0).([]*models.Product); ok {
		return products, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)

	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

func (m *MockOrderRepository) CreateOrderFromCart(ctx context.Context, order *models.Order, cartID uuid.UUID) error {
	args := m.Called(ctx, order, cartID)

	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockOrderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error) {
	args := m.Called(ctx, userID)
	if orders, ok := args.Get(0).([]models.OrderSummary); ok {
		return orders, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)

	return args.Error(0)
}

func (m *MockPaymentRepository) GetPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if payment, ok := args.Get(0).(*models.Payment); ok {
		return payment, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockRateLimitRepository struct {
	mock.Mock
}

func NewMockRateLimitRepository() *MockRateLimitRepository {
	return &MockRateLimitRepository{}
}

func (m *MockRateLimitRepository) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {
	args := m.Called(ctx, username)

	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}

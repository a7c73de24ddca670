package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/parfumarie/ecommerce-backend/internal/models"
)

type MockCartService struct {
	mock.Mock
}

func NewMockCartService() *MockCartService {
	return &MockCartService{}
}

func (m *MockCartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error) {
	args := m.Called(ctx, userID)

	if view, ok := args.Get(0).(*models.CartView); ok {
		return view, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartLineDetail, error) {
	args := m.Called(ctx, userID, req)

	if detail, ok := args.Get(0).(*models.CartLineDetail); ok {
		return detail, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartService) UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.CartLineDetail, error) {
	args := m.Called(ctx, userID, req)

	if detail, ok := args.Get(0).(*models.CartLineDetail); ok {
		return detail, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID int64) error {
	args := m.Called(ctx, userID, productID)

	return args.Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)

	return args.Error(0)
}

type MockCheckoutService struct {
	mock.Mock
}

func NewMockCheckoutService() *MockCheckoutService {
	return &MockCheckoutService{}
}

func (m *MockCheckoutService) Checkout(ctx context.Context, userID uuid.UUID) (*models.CheckoutResponse, error) {
	args := m.Called(ctx, userID)

	if resp, ok := args.Get(0).(*models.CheckoutResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func NewMockOrderService() *MockOrderService {
	return &MockOrderService{}
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, userID, orderID)

	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error) {
	args := m.Called(ctx, userID)

	if orders, ok := args.Get(0).([]models.OrderSummary); ok {
		return orders, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func NewMockProductService() *MockProductService {
	return &MockProductService{}
}

func (m *MockProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, req)

	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)

	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)

	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	args := m.Called(ctx, filter)

	if products, ok := args.Get(0).([]*models.Product); ok {
		return products, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, id, req)

	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func NewMockUserService() *MockUserService {
	return &MockUserService{}
}

func (m *MockUserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)

	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)

	if resp, ok := args.Get(0).(*models.LoginResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)

	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func NewMockPaymentService() *MockPaymentService {
	return &MockPaymentService{}
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, userID uuid.UUID, req *models.CreatePaymentRequest) (*models.PaymentResponse, error) {
	args := m.Called(ctx, userID, req)

	if resp, ok := args.Get(0).(*models.PaymentResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, userID uuid.UUID, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, userID, paymentID)

	if payment, ok := args.Get(0).(*models.Payment); ok {
		return payment, args.Error(1)
	}

	return nil, args.Error(1)
}

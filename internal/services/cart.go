package service

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
)

// CartService maintains the invariant of at most one line per (cart, product)
// and enforces quantity bounds against live stock.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartLineDetail, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.CartLineDetail, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID int64) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	lines, err := s.cartRepo.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to retrieve cart lines").WithError(err)
	}

	view := &models.CartView{
		Items:      make([]models.CartLineDetail, 0, len(lines)),
		TotalPrice: decimal.Zero,
	}

	for _, line := range lines {
		line.Subtotal = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, line)
		view.TotalItems += line.Quantity
		view.TotalPrice = view.TotalPrice.Add(line.Subtotal)
	}

	return view, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartLineDetail, error) {
	if req.Quantity < 1 || req.Quantity > models.MaxLineQuantity {
		return nil, errors.ValidationError("Quantity must be between 1 and 5")
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to look up product").WithError(err)
	}

	if !product.IsActive {
		return nil, errors.NotFoundError("Product not found")
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	// Heal any duplicate rows left over from the legacy store before
	// reading the existing quantity, so the sum is not split across rows.
	if err := s.cartRepo.MergeDuplicateLines(ctx, cart.ID, req.ProductID); err != nil {
		return nil, errors.DatabaseError("Failed to reconcile cart lines").WithError(err)
	}

	existing := 0

	line, err := s.cartRepo.GetLine(ctx, cart.ID, req.ProductID)
	if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to read cart line").WithError(err)
	}

	if line != nil {
		existing = line.Quantity
	}

	requested := existing + req.Quantity
	if requested > product.Stock {
		return nil, errors.InsufficientStockError(product.ID, product.Stock)
	}

	// The per-product cap clamps silently; only stock shortfalls fail loudly.
	quantity := requested
	if quantity > models.MaxLineQuantity {
		quantity = models.MaxLineQuantity
	}

	if quantity > product.Stock {
		quantity = product.Stock
	}

	updated, err := s.cartRepo.UpsertLine(ctx, cart.ID, req.ProductID, quantity)
	if err != nil {
		return nil, errors.DatabaseError("Failed to update cart").WithError(err)
	}

	return lineDetail(product, updated.Quantity), nil
}

func (s *cartService) UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.CartLineDetail, error) {
	if req.Quantity < 0 || req.Quantity > models.MaxLineQuantity {
		return nil, errors.ValidationError("Quantity must be between 0 and 5")
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Cart item not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	if err := s.cartRepo.MergeDuplicateLines(ctx, cart.ID, req.ProductID); err != nil {
		return nil, errors.DatabaseError("Failed to reconcile cart lines").WithError(err)
	}

	if _, err := s.cartRepo.GetLine(ctx, cart.ID, req.ProductID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Cart item not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to read cart line").WithError(err)
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to look up product").WithError(err)
	}

	// Quantity zero is a removal, not an error.
	if req.Quantity == 0 {
		if _, err := s.cartRepo.DeleteLine(ctx, cart.ID, req.ProductID); err != nil {
			return nil, errors.DatabaseError("Failed to remove cart line").WithError(err)
		}

		return lineDetail(product, 0), nil
	}

	if req.Quantity > product.Stock {
		return nil, errors.InsufficientStockError(product.ID, product.Stock)
	}

	// Unlike AddItem this sets the quantity exactly, no additive merge.
	updated, err := s.cartRepo.UpsertLine(ctx, cart.ID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, errors.DatabaseError("Failed to update cart").WithError(err)
	}

	return lineDetail(product, updated.Quantity), nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID int64) error {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFoundError("Cart item not found").WithError(err)
		}

		return errors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	deleted, err := s.cartRepo.DeleteLine(ctx, cart.ID, productID)
	if err != nil {
		return errors.DatabaseError("Failed to remove cart line").WithError(err)
	}

	if deleted == 0 {
		return errors.NotFoundError("Cart item not found")
	}

	return nil
}

// Clear always succeeds, including when the cart was never created.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil
		}

		return errors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	if err := s.cartRepo.ClearLines(ctx, cart.ID); err != nil {
		return errors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}

func lineDetail(product *models.Product, quantity int) *models.CartLineDetail {
	return &models.CartLineDetail{
		ProductID: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Quantity:  quantity,
		Price:     product.Price,
		Stock:     product.Stock,
		Subtotal:  product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"github.com/parfumarie/ecommerce-backend/internal/cache"
	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	cache       cache.Cache
	sanitizer   *bluemonday.Policy
	logger      *slog.Logger
}

func NewProductService(productRepo repository.ProductRepository, productCache cache.Cache, logger *slog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       productCache,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger,
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  s.sanitizer.Sanitize(req.Description),
		TargetGender: req.TargetGender,
		Price:        req.Price,
		Stock:        req.Stock,
		IsActive:     true,
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		if isUniqueViolation(err) {
			return nil, errors.DuplicateEntryError("A product with this slug already exists").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	key := cache.Key(cache.ProductKeyPrefix, strconv.FormatInt(id, 10))

	var cached models.Product

	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WarnContext(ctx, "product cache read failed", slog.Any("error", err))
	}

	if hit {
		return &cached, nil
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve product").WithError(err)
	}

	if err := s.cache.Set(ctx, key, product, 0); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed", slog.Any("error", err))
	}

	return product, nil
}

func (s *productService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.productRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve product").WithError(err)
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	products, err := s.productRepo.ListProducts(ctx, filter)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list products").WithError(err)
	}

	return products, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve product").WithError(err)
	}

	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}

	if req.Name != nil {
		product.Name = *req.Name
	}

	if req.TargetGender != nil {
		product.TargetGender = *req.TargetGender
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to update product").WithError(err)
	}

	key := cache.Key(cache.ProductKeyPrefix, strconv.FormatInt(id, 10))
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed", slog.Any("error", err))
	}

	return product, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/parfumarie/ecommerce-backend/internal/models"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (category_id, name, slug, description, target_gender, price, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.CategoryID, product.Name, product.Slug, product.Description,
		product.TargetGender, product.Price, product.Stock, product.IsActive).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.target_gender,
		       p.price, p.stock, p.is_active, p.created_at, p.updated_at,
		       c.id, c.name, c.slug
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1
	`

	return r.scanProduct(r.DB.QueryRowContext(dbCtx, query, id))
}

func (r *productRepository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.target_gender,
		       p.price, p.stock, p.is_active, p.created_at, p.updated_at,
		       c.id, c.name, c.slug
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.slug = $1
	`

	return r.scanProduct(r.DB.QueryRowContext(dbCtx, query, slug))
}

func (r *productRepository) scanProduct(row *sql.Row) (*models.Product, error) {
	product := &models.Product{}

	var category models.Category

	var categoryID sql.NullInt64

	var categoryName, categorySlug sql.NullString

	err := row.Scan(&product.ID, &product.CategoryID, &product.Name, &product.Slug,
		&product.Description, &product.TargetGender, &product.Price, &product.Stock,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
		&categoryID, &categoryName, &categorySlug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	if categoryID.Valid {
		category.ID = categoryID.Int64
		category.Name = categoryName.String
		category.Slug = categorySlug.String
		product.Category = &category
	}

	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.target_gender,
		       p.price, p.stock, p.is_active, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE 1=1
	`

	args := []any{}
	argPos := 1

	if filter.ActiveOnly {
		query += " AND p.is_active = TRUE"
	}

	if filter.CategorySlug != "" {
		query += fmt.Sprintf(" AND c.slug = $%d", argPos)
		args = append(args, filter.CategorySlug)
		argPos++
	}

	if filter.TargetGender != "" {
		query += fmt.Sprintf(" AND p.target_gender = $%d", argPos)
		args = append(args, filter.TargetGender)
		argPos++
	}

	if filter.MinPrice != nil {
		query += fmt.Sprintf(" AND p.price >= $%d", argPos)
		args = append(args, *filter.MinPrice)
		argPos++
	}

	if filter.MaxPrice != nil {
		query += fmt.Sprintf(" AND p.price <= $%d", argPos)
		args = append(args, *filter.MaxPrice)
		argPos++
	}

	query += " ORDER BY p.id"

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product := &models.Product{}

		err := rows.Scan(&product.ID, &product.CategoryID, &product.Name, &product.Slug,
			&product.Description, &product.TargetGender, &product.Price, &product.Stock,
			&product.IsActive, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, target_gender = $4,
		    price = $5, stock = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.CategoryID, product.Name, product.Description, product.TargetGender,
		product.Price, product.Stock, product.IsActive, product.ID).
		Scan(&product.UpdatedAt)
}

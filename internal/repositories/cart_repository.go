package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/parfumarie/ecommerce-backend/internal/models"
	"github.com/parfumarie/ecommerce-backend/internal/utils"
)

type CartRepository interface {
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetLine(ctx context.Context, cartID uuid.UUID, productID int64) (*models.CartLine, error)
	GetLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLineDetail, error)
	UpsertLine(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartLine, error)
	DeleteLine(ctx context.Context, cartID uuid.UUID, productID int64) (int64, error)
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	MergeDuplicateLines(ctx context.Context, cartID uuid.UUID, productID int64) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	cart := &models.Cart{}

	err := r.DB.QueryRowContext(dbCtx, query, userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return cart, nil
}

// GetOrCreateCart returns the user's cart, creating an empty one on first
// touch. The upsert keeps the operation idempotent under concurrent first
// mutations: whichever insert loses the race gets the winner's row back.
func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, created_at, updated_at
	`

	cart := &models.Cart{}

	err := r.DB.QueryRowContext(dbCtx, query, uuid.New(), userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) GetLine(ctx context.Context, cartID uuid.UUID, productID int64) (*models.CartLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2
		ORDER BY id
		LIMIT 1
	`

	line := &models.CartLine{}

	err := r.DB.QueryRowContext(dbCtx, query, cartID, productID).
		Scan(&line.ID, &line.CartID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return line, nil
}

// GetLines joins cart lines with their products so callers always see the
// current catalog price and stock, never a cached copy.
func (r *cartRepository) GetLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLineDetail, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT l.product_id, p.name, p.slug, l.quantity, p.price, p.stock
		FROM cart_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.cart_id = $1
		ORDER BY l.id
	`

	rows, err := r.DB.QueryContext(dbCtx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}

	defer rows.Close()

	var lines []models.CartLineDetail

	for rows.Next() {
		var line models.CartLineDetail

		err := rows.Scan(&line.ProductID, &line.Name, &line.Slug, &line.Quantity, &line.Price, &line.Stock)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// UpsertLine writes the line's quantity as a single statement. The unique
// (cart_id, product_id) index makes duplicate rows impossible at the write
// path regardless of interleaving.
func (r *cartRepository) UpsertLine(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_lines (cart_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, cart_id, product_id, quantity, created_at, updated_at
	`

	line := &models.CartLine{}

	err := r.DB.QueryRowContext(dbCtx, query, cartID, productID, quantity).
		Scan(&line.ID, &line.CartID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart line: %w", err)
	}

	return line, nil
}

// DeleteLine removes every row for the pair, so a legacy duplicate cannot
// survive a removal. Returns the number of rows deleted.
func (r *cartRepository) DeleteLine(ctx context.Context, cartID uuid.UUID, productID int64) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2
	`

	result, err := r.DB.ExecContext(dbCtx, query, cartID, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart line: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted rows: %w", err)
	}

	return deleted, nil
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM cart_lines
		WHERE cart_id = $1
	`

	if _, err := r.DB.ExecContext(dbCtx, query, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// MergeDuplicateLines folds duplicate rows for a (cart, product) pair into
// the earliest-created one, summing quantities. New writes cannot create
// duplicates, but rows migrated from the legacy store could; every mutating
// entry point calls this defensively before writing.
func (r *cartRepository) MergeDuplicateLines(ctx context.Context, cartID uuid.UUID, productID int64) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}

	defer tx.Rollback()

	mergeQuery := `
		UPDATE cart_lines SET quantity = d.total, updated_at = NOW()
		FROM (
			SELECT MIN(id) AS keep_id, SUM(quantity) AS total
			FROM cart_lines
			WHERE cart_id = $1 AND product_id = $2
			HAVING COUNT(*) > 1
		) d
		WHERE cart_lines.id = d.keep_id
	`

	if _, err := tx.ExecContext(dbCtx, mergeQuery, cartID, productID); err != nil {
		return fmt.Errorf("failed to merge duplicate cart lines: %w", err)
	}

	pruneQuery := `
		DELETE FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2
		  AND id <> (
			SELECT MIN(id) FROM cart_lines
			WHERE cart_id = $1 AND product_id = $2
		  )
	`

	if _, err := tx.ExecContext(dbCtx, pruneQuery, cartID, productID); err != nil {
		return fmt.Errorf("failed to prune duplicate cart lines: %w", err)
	}

	return tx.Commit()
}

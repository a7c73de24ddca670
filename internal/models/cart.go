package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps a single cart line. Requests above the cap are
// rejected; additive merges are clamped down to it.
const MaxLineQuantity = 5

type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is one (product, quantity) entry of a cart. The bigserial ID
// doubles as the creation order used when healing duplicate rows: the
// lowest ID survives a merge.
type CartLine struct {
	ID        int64     `json:"id"`
	CartID    uuid.UUID `json:"cart_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLineDetail is a cart line joined with its product at the current
// catalog price. Prices here are live, unlike order lines which freeze
// the price at checkout.
type CartLineDetail struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	Items      []CartLineDetail `json:"items"`
	TotalItems int              `json:"total_items"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity"   validate:"required,min=1,max=5"`
}

// UpdateItemRequest carries only the new quantity; the product comes from
// the URL path.
type UpdateItemRequest struct {
	ProductID int64 `json:"-"`
	Quantity  int   `json:"quantity" validate:"gte=0,lte=5"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID           int64           `json:"id"`
	CategoryID   int64           `json:"category_id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	TargetGender string          `json:"target_gender"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Category     *Category       `json:"category,omitempty"`
}

type CreateProductRequest struct {
	CategoryID   int64           `json:"category_id" validate:"required"`
	Name         string          `json:"name" validate:"required,min=3,max=200"`
	Slug         string          `json:"slug" validate:"required,min=3,max=200"`
	Description  string          `json:"description,omitempty"`
	TargetGender string          `json:"target_gender,omitempty" validate:"omitempty,oneof=male female unisex"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	Stock        int             `json:"stock" validate:"gte=0"`
}

type UpdateProductRequest struct {
	CategoryID   *int64           `json:"category_id,omitempty"`
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description  *string          `json:"description,omitempty"`
	TargetGender *string          `json:"target_gender,omitempty" validate:"omitempty,oneof=male female unisex"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Stock        *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

// ProductFilter narrows catalog listings. Zero values mean "no constraint".
type ProductFilter struct {
	CategorySlug string
	TargetGender string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	ActiveOnly   bool
}

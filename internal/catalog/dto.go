package catalog

import (
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VariantDTO struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductDTO is the storefront view of a product. Variant prices fall back to
// the product price.
type ProductDTO struct {
	ID         uuid.UUID       `json:"id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Price      decimal.Decimal `json:"price"`
	Variants   []VariantDTO    `json:"variants"`
}

func FromModel(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		Slug:       p.Slug,
		Price:      p.Price.Round(2),
		Variants:   make([]VariantDTO, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{ID: v.ID, Name: v.Name, Price: variantPrice(p, v)})
	}
	return dto
}

func variantPrice(p models.Product, v models.ProductVariant) decimal.Decimal {
	if v.Price.Valid && v.Price.Decimal.IsPositive() {
		return v.Price.Decimal.Round(2)
	}
	return p.Price.Round(2)
}

// LineInput is one requested cart line.
type LineInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
}

// PricedCart carries order items priced from the catalog, ready to insert.
type PricedCart struct {
	Items    []models.OrderItem
	Subtotal decimal.Decimal
}

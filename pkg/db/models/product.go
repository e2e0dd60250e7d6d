package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is read by the storefront catalog and used for parcel dimension fallbacks.
type Product struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoreID    uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	CategoryID *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Name       string              `gorm:"column:name;not null"`
	Slug       string              `gorm:"column:slug;not null"`
	Price      decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Active     bool                `gorm:"column:active;not null"`
	WeightKg   decimal.NullDecimal `gorm:"column:weight_kg;type:numeric(10,3)"`
	HeightCm   decimal.NullDecimal `gorm:"column:height_cm;type:numeric(10,2)"`
	WidthCm    decimal.NullDecimal `gorm:"column:width_cm;type:numeric(10,2)"`
	LengthCm   decimal.NullDecimal `gorm:"column:length_cm;type:numeric(10,2)"`
	Variants   []ProductVariant    `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type ProductVariant struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string              `gorm:"column:name;not null"`
	Price     decimal.NullDecimal `gorm:"column:price;type:numeric(12,2)"`
	WeightKg  decimal.NullDecimal `gorm:"column:weight_kg;type:numeric(10,3)"`
	HeightCm  decimal.NullDecimal `gorm:"column:height_cm;type:numeric(10,2)"`
	WidthCm   decimal.NullDecimal `gorm:"column:width_cm;type:numeric(10,2)"`
	LengthCm  decimal.NullDecimal `gorm:"column:length_cm;type:numeric(10,2)"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

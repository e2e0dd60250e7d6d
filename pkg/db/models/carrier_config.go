package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// CarrierConfig holds the per-store Melhor Envio integration settings. The
// access token is stored sealed; see pkg/security.
type CarrierConfig struct {
	StoreID           uuid.UUID       `gorm:"column:store_id;type:uuid;primaryKey"`
	Enabled           bool            `gorm:"column:enabled;not null"`
	Sandbox           bool            `gorm:"column:sandbox;not null"`
	TokenSealed       string          `gorm:"column:token_sealed;not null;default:''"`
	OriginPostalCode  string          `gorm:"column:origin_postal_code;type:char(8);not null;default:''"`
	DefaultWeightKg   decimal.Decimal `gorm:"column:default_weight_kg;type:numeric(10,3);not null;default:0"`
	DefaultHeightCm   decimal.Decimal `gorm:"column:default_height_cm;type:numeric(10,2);not null;default:0"`
	DefaultWidthCm    decimal.Decimal `gorm:"column:default_width_cm;type:numeric(10,2);not null;default:0"`
	DefaultLengthCm   decimal.Decimal `gorm:"column:default_length_cm;type:numeric(10,2);not null;default:0"`
	OriginAddressID   *string         `gorm:"column:origin_address_id"`
	AllowedServiceIDs pq.StringArray  `gorm:"column:allowed_service_ids;type:text[]"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

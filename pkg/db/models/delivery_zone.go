package models

import (
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeliveryZone groups postal ranges with the shipping methods offered inside them.
type DeliveryZone struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	StoreID   uuid.UUID            `gorm:"column:store_id;type:uuid;not null;index"`
	Name      string               `gorm:"column:name;not null"`
	SortOrder int                  `gorm:"column:sort_order;not null;default:0"`
	Ranges    []DeliveryZoneRange  `gorm:"foreignKey:ZoneID;constraint:OnDelete:CASCADE"`
	Methods   []DeliveryZoneMethod `gorm:"foreignKey:ZoneID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (z *DeliveryZone) BeforeCreate(*gorm.DB) error {
	ensureID(&z.ID)
	return nil
}

// DeliveryZoneRange bounds are stored normalized to eight digits.
type DeliveryZoneRange struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ZoneID   uuid.UUID `gorm:"column:zone_id;type:uuid;not null;index"`
	Position int       `gorm:"column:position;not null"`
	CEPStart string    `gorm:"column:cep_start;type:char(8);not null"`
	CEPEnd   string    `gorm:"column:cep_end;type:char(8);not null"`
}

func (r *DeliveryZoneRange) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// DeliveryZoneMethod is the persisted form of a shipping method. Manual
// methods use the price columns and carrier methods use CarrierServiceID.
type DeliveryZoneMethod struct {
	ID                    uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	ZoneID                uuid.UUID                `gorm:"column:zone_id;type:uuid;not null;index"`
	Position              int                      `gorm:"column:position;not null"`
	Kind                  enums.ShippingMethodKind `gorm:"column:kind;not null"`
	Name                  string                   `gorm:"column:name;not null;default:''"`
	Price                 decimal.Decimal          `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	FreeShippingThreshold decimal.NullDecimal      `gorm:"column:free_shipping_threshold;type:numeric(12,2)"`
	DeliveryTimeMin       *int                     `gorm:"column:delivery_time_min"`
	DeliveryTimeMax       *int                     `gorm:"column:delivery_time_max"`
	CarrierServiceID      *int64                   `gorm:"column:carrier_service_id"`
}

func (m *DeliveryZoneMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

package models

import (
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShipmentColumns are written only by the fulfillment service. Generic order
// edits must omit them.
var ShipmentColumns = []string{
	"melhor_envio_shipment_id",
	"melhor_envio_service_id",
	"melhor_envio_service_name",
	"melhor_envio_protocol",
	"melhor_envio_label_url",
	"melhor_envio_tracking",
	"melhor_envio_tracking_status",
	"melhor_envio_status",
	"shipment_version",
}

type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID `gorm:"column:store_id;type:uuid;not null;index"`
	OrderNumber int64     `gorm:"column:order_number;not null"`

	CustomerName     string  `gorm:"column:customer_name;not null"`
	CustomerPhone    string  `gorm:"column:customer_phone;not null"`
	CustomerEmail    *string `gorm:"column:customer_email"`
	CustomerDocument *string `gorm:"column:customer_document"`

	AddressStreet     string  `gorm:"column:address_street;not null;default:''"`
	AddressNumber     string  `gorm:"column:address_number;not null;default:''"`
	AddressComplement *string `gorm:"column:address_complement"`
	AddressDistrict   string  `gorm:"column:address_district;not null;default:''"`
	AddressCity       string  `gorm:"column:address_city;not null;default:''"`
	AddressState      string  `gorm:"column:address_state;not null;default:''"`
	AddressPostalCode string  `gorm:"column:address_postal_code;type:char(8);not null;default:''"`

	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	Discount     decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	ShippingMethodID   *string           `gorm:"column:shipping_method_id"`
	ShippingMethodName *string           `gorm:"column:shipping_method_name"`
	Status             enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Notes              *string           `gorm:"column:notes"`

	MelhorEnvioShipmentID     *string              `gorm:"column:melhor_envio_shipment_id"`
	MelhorEnvioServiceID      *int64               `gorm:"column:melhor_envio_service_id"`
	MelhorEnvioServiceName    *string              `gorm:"column:melhor_envio_service_name"`
	MelhorEnvioProtocol       *string              `gorm:"column:melhor_envio_protocol"`
	MelhorEnvioLabelURL       *string              `gorm:"column:melhor_envio_label_url"`
	MelhorEnvioTracking       *string              `gorm:"column:melhor_envio_tracking"`
	MelhorEnvioTrackingStatus *string              `gorm:"column:melhor_envio_tracking_status"`
	MelhorEnvioStatus         enums.ShipmentStatus `gorm:"column:melhor_envio_status;not null;default:'none'"`
	ShipmentVersion           int                  `gorm:"column:shipment_version;not null;default:0"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.MelhorEnvioStatus == "" {
		o.MelhorEnvioStatus = enums.ShipmentStatusNone
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID *uuid.UUID          `gorm:"column:product_id;type:uuid"`
	VariantID *uuid.UUID          `gorm:"column:variant_id;type:uuid"`
	Name      string              `gorm:"column:name;not null"`
	Quantity  int                 `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Total     decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	WeightKg  decimal.NullDecimal `gorm:"column:weight_kg;type:numeric(10,3)"`
	HeightCm  decimal.NullDecimal `gorm:"column:height_cm;type:numeric(10,2)"`
	WidthCm   decimal.NullDecimal `gorm:"column:width_cm;type:numeric(10,2)"`
	LengthCm  decimal.NullDecimal `gorm:"column:length_cm;type:numeric(10,2)"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

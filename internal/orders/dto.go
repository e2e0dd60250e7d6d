package orders

import (
	"time"

	"github.com/angelmondragon/vitrine-backend/internal/catalog"
	"github.com/angelmondragon/vitrine-backend/internal/fulfillment"
	"github.com/angelmondragon/vitrine-backend/internal/shipping"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type AddressDTO struct {
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	Complement *string `json:"complement,omitempty"`
	District   string  `json:"district"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
}

// OrderDTO is the full order view used by the dashboard and returned after a
// storefront submit.
type OrderDTO struct {
	ID                 uuid.UUID               `json:"id"`
	OrderNumber        int64                   `json:"order_number"`
	CustomerName       string                  `json:"customer_name"`
	CustomerPhone      string                  `json:"customer_phone"`
	CustomerEmail      *string                 `json:"customer_email,omitempty"`
	CustomerDocument   *string                 `json:"customer_document,omitempty"`
	Address            AddressDTO              `json:"address"`
	Subtotal           decimal.Decimal         `json:"subtotal"`
	ShippingCost       decimal.Decimal         `json:"shipping_cost"`
	Discount           decimal.Decimal         `json:"discount"`
	Total              decimal.Decimal         `json:"total"`
	ShippingMethodID   *string                 `json:"shipping_method_id,omitempty"`
	ShippingMethodName *string                 `json:"shipping_method_name,omitempty"`
	Status             enums.OrderStatus       `json:"status"`
	Notes              *string                 `json:"notes,omitempty"`
	Items              []ItemDTO               `json:"items"`
	Shipment           fulfillment.ShipmentDTO `json:"shipment"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// Summary is one row of the dashboard order list.
type Summary struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    int64                `json:"order_number"`
	CustomerName   string               `json:"customer_name"`
	CustomerPhone  string               `json:"customer_phone"`
	Total          decimal.Decimal      `json:"total"`
	Status         enums.OrderStatus    `json:"status"`
	ShipmentStatus enums.ShipmentStatus `json:"shipment_status"`
	CreatedAt      time.Time            `json:"created_at"`
}

type ListResult struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type ListFilter struct {
	Status *enums.OrderStatus
	Search string
}

func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerName:     o.CustomerName,
		CustomerPhone:    o.CustomerPhone,
		CustomerEmail:    o.CustomerEmail,
		CustomerDocument: o.CustomerDocument,
		Address: AddressDTO{
			Street:     o.AddressStreet,
			Number:     o.AddressNumber,
			Complement: o.AddressComplement,
			District:   o.AddressDistrict,
			City:       o.AddressCity,
			State:      o.AddressState,
			PostalCode: o.AddressPostalCode,
		},
		Subtotal:           o.Subtotal.Round(2),
		ShippingCost:       o.ShippingCost.Round(2),
		Discount:           o.Discount.Round(2),
		Total:              o.Total.Round(2),
		ShippingMethodID:   o.ShippingMethodID,
		ShippingMethodName: o.ShippingMethodName,
		Status:             o.Status,
		Notes:              o.Notes,
		Items:              make([]ItemDTO, 0, len(o.Items)),
		Shipment:           fulfillment.FromOrder(&o),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Round(2),
			Total:     item.Total.Round(2),
		})
	}
	return dto
}

func summaryFromModel(o models.Order) Summary {
	return Summary{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerName:   o.CustomerName,
		CustomerPhone:  o.CustomerPhone,
		Total:          o.Total.Round(2),
		Status:         o.Status,
		ShipmentStatus: o.MelhorEnvioStatus.Normalize(),
		CreatedAt:      o.CreatedAt,
	}
}

type CustomerInput struct {
	Name     string  `json:"name" validate:"required"`
	Phone    string  `json:"phone" validate:"required"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Document *string `json:"document"`
}

type AddressInput struct {
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	Complement *string `json:"complement"`
	District   string  `json:"district"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
}

// SubmitInput is a storefront checkout. Prices come from the catalog and the
// shipping option is re-quoted, so the client only names what it picked.
type SubmitInput struct {
	Customer         CustomerInput       `json:"customer" validate:"required"`
	Address          AddressInput        `json:"address"`
	Items            []catalog.LineInput `json:"items" validate:"required,min=1,dive"`
	ShippingMethodID string              `json:"shipping_method_id"`
	Notes            *string             `json:"notes"`
}

type SubmitResult struct {
	Order       OrderDTO `json:"order"`
	WhatsAppURL string   `json:"whatsapp_url"`
}

// QuoteInput asks for the shipping options of a storefront cart.
type QuoteInput struct {
	PostalCode string              `json:"postal_code" validate:"required"`
	Items      []catalog.LineInput `json:"items" validate:"required,min=1,dive"`
}

type QuoteResult struct {
	Subtotal decimal.Decimal       `json:"subtotal"`
	Shipping *shipping.QuoteResult `json:"shipping"`
}

// ItemInput is a dashboard-edited line. Prices are taken as given.
type ItemInput struct {
	ProductID *uuid.UUID      `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// UpdateInput edits an order from the dashboard. Nil fields are kept. A
// non-nil Items replaces every line.
type UpdateInput struct {
	Customer         *CustomerInput   `json:"customer"`
	Address          *AddressInput    `json:"address"`
	Status           *string          `json:"status"`
	Notes            *string          `json:"notes"`
	Discount         *decimal.Decimal `json:"discount"`
	ShippingMethodID *string          `json:"shipping_method_id"`
	ShippingCost     *decimal.Decimal `json:"shipping_cost"`
	Items            []ItemInput      `json:"items" validate:"omitempty,dive"`
}

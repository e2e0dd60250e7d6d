package carrier

import (
	"github.com/angelmondragon/vitrine-backend/pkg/melhorenvio"
	"github.com/shopspring/decimal"
)

// Parcel is one package to quote. Zero dimensions take the store defaults.
type Parcel struct {
	ID             string          `json:"id,omitempty"`
	WeightKg       decimal.Decimal `json:"weight_kg"`
	HeightCm       decimal.Decimal `json:"height_cm"`
	WidthCm        decimal.Decimal `json:"width_cm"`
	LengthCm       decimal.Decimal `json:"length_cm"`
	Quantity       int             `json:"quantity"`
	InsuranceValue decimal.Decimal `json:"insurance_value"`
}

// Quote is a service able to deliver the parcels.
type Quote struct {
	ServiceID    int64           `json:"service_id"`
	Name         string          `json:"name"`
	Company      string          `json:"company"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime int             `json:"delivery_time"`
	DeliveryMin  int             `json:"delivery_min"`
	DeliveryMax  int             `json:"delivery_max"`
}

func quoteFromUpstream(q melhorenvio.Quote) Quote {
	price := q.CustomPrice
	if !price.IsPositive() {
		price = q.Price
	}
	return Quote{
		ServiceID:    q.ID,
		Name:         q.Name,
		Company:      q.Company.Name,
		Price:        price.Round(2),
		DeliveryTime: q.DeliveryTime,
		DeliveryMin:  q.DeliveryRange.Min,
		DeliveryMax:  q.DeliveryRange.Max,
	}
}

// CartResult is the shipment created for an order.
type CartResult struct {
	ShipmentID  string          `json:"shipment_id"`
	ServiceID   int64           `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Protocol    string          `json:"protocol,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// TrackingResult carries the upstream status verbatim.
type TrackingResult struct {
	ShipmentID string  `json:"shipment_id"`
	Status     string  `json:"status"`
	Tracking   *string `json:"tracking,omitempty"`
	Protocol   string  `json:"protocol,omitempty"`
}

package melhorenvio

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FlexID accepts identifiers the API sends either as numbers or as strings.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

// PostalCode wraps a bare CEP the way the API nests it.
type PostalCode struct {
	PostalCode string `json:"postal_code"`
}

// Product is a line of the calculate payload. Dimensions are in cm and kg.
type Product struct {
	ID             string          `json:"id"`
	Width          decimal.Decimal `json:"width"`
	Height         decimal.Decimal `json:"height"`
	Length         decimal.Decimal `json:"length"`
	Weight         decimal.Decimal `json:"weight"`
	InsuranceValue decimal.Decimal `json:"insurance_value"`
	Quantity       int             `json:"quantity"`
}

type CalculateOptions struct {
	Receipt bool `json:"receipt"`
	OwnHand bool `json:"own_hand"`
}

type CalculateRequest struct {
	From     PostalCode        `json:"from"`
	To       PostalCode        `json:"to"`
	Products []Product         `json:"products"`
	Options  *CalculateOptions `json:"options,omitempty"`
	Services string            `json:"services,omitempty"`
}

type Company struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

type DeliveryRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Quote is one service offer from calculate. A non-empty Error means the
// service cannot serve this request.
type Quote struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	CustomPrice   decimal.Decimal `json:"custom_price"`
	Discount      decimal.Decimal `json:"discount"`
	Currency      string          `json:"currency"`
	DeliveryTime  int             `json:"delivery_time"`
	DeliveryRange DeliveryRange   `json:"delivery_range"`
	Company       Company         `json:"company"`
	Error         string          `json:"error,omitempty"`
}

// Party is the sender or recipient block of a cart insertion.
type Party struct {
	Name            string `json:"name"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Document        string `json:"document,omitempty"`
	CompanyDocument string `json:"company_document,omitempty"`
	Address         string `json:"address"`
	Complement      string `json:"complement,omitempty"`
	Number          string `json:"number"`
	District        string `json:"district"`
	City            string `json:"city"`
	StateAbbr       string `json:"state_abbr"`
	CountryID       string `json:"country_id"`
	PostalCode      string `json:"postal_code"`
	Note            string `json:"note,omitempty"`
}

type CartProduct struct {
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitaryValue decimal.Decimal `json:"unitary_value"`
}

type Volume struct {
	Height decimal.Decimal `json:"height"`
	Width  decimal.Decimal `json:"width"`
	Length decimal.Decimal `json:"length"`
	Weight decimal.Decimal `json:"weight"`
}

type Tag struct {
	Tag string `json:"tag"`
	URL string `json:"url,omitempty"`
}

type CartOptions struct {
	InsuranceValue decimal.Decimal `json:"insurance_value"`
	Receipt        bool            `json:"receipt"`
	OwnHand        bool            `json:"own_hand"`
	Reverse        bool            `json:"reverse"`
	NonCommercial  bool            `json:"non_commercial"`
	Platform       string          `json:"platform,omitempty"`
	Tags           []Tag           `json:"tags,omitempty"`
}

type CartRequest struct {
	Service  int64         `json:"service"`
	From     Party         `json:"from"`
	To       Party         `json:"to"`
	Products []CartProduct `json:"products"`
	Volumes  []Volume      `json:"volumes"`
	Options  CartOptions   `json:"options"`
}

// CartItem is the shipment created by a cart insertion.
type CartItem struct {
	ID        string          `json:"id"`
	Protocol  string          `json:"protocol"`
	ServiceID int64           `json:"service_id"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
}

type Purchase struct {
	ID       string          `json:"id"`
	Protocol string          `json:"protocol"`
	Total    decimal.Decimal `json:"total"`
	Status   string          `json:"status"`
}

type CheckoutResponse struct {
	Purchase Purchase `json:"purchase"`
}

// GenerateResult reports label generation for one shipment id.
type GenerateResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type PrintResponse struct {
	URL string `json:"url"`
}

// Tracking is the carrier's view of a shipment. Status is passed through verbatim.
type Tracking struct {
	ID                  string  `json:"id"`
	Protocol            string  `json:"protocol"`
	Status              string  `json:"status"`
	Tracking            *string `json:"tracking"`
	MelhorEnvioTracking *string `json:"melhorenvio_tracking"`
	PostedAt            *string `json:"posted_at"`
	DeliveredAt         *string `json:"delivered_at"`
	CanceledAt          *string `json:"canceled_at"`
}

type CancelResult struct {
	Canceled bool `json:"canceled"`
}

type State struct {
	StateAbbr string `json:"state_abbr"`
}

type City struct {
	City  string `json:"city"`
	State State  `json:"state"`
}

// Address is a sender address registered on the carrier account.
type Address struct {
	ID         FlexID `json:"id"`
	Label      string `json:"label"`
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       City   `json:"city"`
}

type addressPage struct {
	Data []Address `json:"data"`
}

// Service is a carrier service offered to the account.
type Service struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Company Company `json:"company"`
}

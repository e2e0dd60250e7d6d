package stores

import (
	"strconv"
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreDTO exposes public tenant data.
type StoreDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	CustomDomain  *string   `json:"custom_domain,omitempty"`
	WhatsAppPhone string    `json:"whatsapp_phone"`
	Active        bool      `json:"active"`
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:            m.ID,
		Name:          m.Name,
		Slug:          m.Slug,
		CustomDomain:  m.CustomDomain,
		WhatsAppPhone: m.WhatsAppPhone,
		Active:        m.Active,
	}
}

// Parcel is a package's dimensions in kilograms and centimeters.
type Parcel struct {
	WeightKg decimal.Decimal `json:"weight_kg"`
	HeightCm decimal.Decimal `json:"height_cm"`
	WidthCm  decimal.Decimal `json:"width_cm"`
	LengthCm decimal.Decimal `json:"length_cm"`
}

// DefaultParcel fills any tenant default left at zero.
var DefaultParcel = Parcel{
	WeightKg: decimal.RequireFromString("0.3"),
	HeightCm: decimal.NewFromInt(2),
	WidthCm:  decimal.NewFromInt(11),
	LengthCm: decimal.NewFromInt(16),
}

// Or returns p with every non-positive field taken from fallback.
func (p Parcel) Or(fallback Parcel) Parcel {
	return Parcel{
		WeightKg: positiveOr(p.WeightKg, fallback.WeightKg),
		HeightCm: positiveOr(p.HeightCm, fallback.HeightCm),
		WidthCm:  positiveOr(p.WidthCm, fallback.WidthCm),
		LengthCm: positiveOr(p.LengthCm, fallback.LengthCm),
	}
}

func positiveOr(v, fallback decimal.Decimal) decimal.Decimal {
	if v.IsPositive() {
		return v
	}
	return fallback
}

// CarrierSettings is the loaded Melhor Envio configuration of one store with
// defaults applied and the token opened.
type CarrierSettings struct {
	StoreID           uuid.UUID
	Enabled           bool
	Sandbox           bool
	Token             string
	OriginPostalCode  string
	Defaults          Parcel
	OriginAddressID   *string
	AllowedServiceIDs []int64
}

// Configured reports whether carrier calls may be issued.
func (c *CarrierSettings) Configured() bool {
	return c != nil && c.Enabled && c.Token != "" && c.OriginPostalCode != ""
}

// AllowsService applies the allow-list. An empty list allows every service.
func (c *CarrierSettings) AllowsService(id int64) bool {
	if len(c.AllowedServiceIDs) == 0 {
		return true
	}
	for _, allowed := range c.AllowedServiceIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// CarrierSettingsDTO is the dashboard view. The token is write-only.
type CarrierSettingsDTO struct {
	Enabled           bool       `json:"enabled"`
	Sandbox           bool       `json:"sandbox"`
	TokenSet          bool       `json:"token_set"`
	OriginPostalCode  string     `json:"origin_postal_code"`
	Defaults          Parcel     `json:"defaults"`
	OriginAddressID   *string    `json:"origin_address_id,omitempty"`
	AllowedServiceIDs []int64    `json:"allowed_service_ids"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// CarrierSettingsInput replaces the store config. A nil Token keeps the
// stored one and an empty string clears it.
type CarrierSettingsInput struct {
	Enabled           bool
	Sandbox           bool
	Token             *string
	OriginPostalCode  string
	Defaults          Parcel
	OriginAddressID   *string
	AllowedServiceIDs []int64
}

func parseServiceIDs(raw []string) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func formatServiceIDs(ids []int64) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

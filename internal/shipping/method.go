package shipping

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	legacyCarrierPrefix = "__me_service_"
	legacyCarrierSuffix = "__"
)

// Manual is a store-priced method with an optional free-shipping threshold.
type Manual struct {
	Name                  string
	Price                 decimal.Decimal
	FreeShippingThreshold *decimal.Decimal
	DeliveryTimeMin       *int
	DeliveryTimeMax       *int
}

// Carrier binds a method to one Melhor Envio service. Its price is quoted
// per request.
type Carrier struct {
	ServiceID int64
	Name      string
}

// Method is a shipping option inside a zone. Exactly one of Manual or
// Carrier is set, according to Kind.
type Method struct {
	ID      uuid.UUID
	Kind    enums.ShippingMethodKind
	Manual  *Manual
	Carrier *Carrier
}

// DisplayName is the label shown to shoppers.
func (m Method) DisplayName() string {
	switch m.Kind {
	case enums.ShippingMethodKindManual:
		if m.Manual != nil {
			return m.Manual.Name
		}
	case enums.ShippingMethodKindCarrier:
		if m.Carrier != nil {
			return m.Carrier.Name
		}
	}
	return ""
}

// ParseLegacyCarrierName recognizes the old __me_service_<id>__ naming that
// marked a carrier-bound method. It is accepted on input only.
func ParseLegacyCarrierName(name string) (int64, bool) {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, legacyCarrierPrefix) || !strings.HasSuffix(name, legacyCarrierSuffix) {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, legacyCarrierPrefix), legacyCarrierSuffix)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

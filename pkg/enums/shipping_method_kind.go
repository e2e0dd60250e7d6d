package enums

import "fmt"

// ShippingMethodKind tags a delivery zone method as a flat manual rate or as a
// binding to one carrier service.
type ShippingMethodKind string

const (
	ShippingMethodKindManual  ShippingMethodKind = "manual"
	ShippingMethodKindCarrier ShippingMethodKind = "carrier"
)

func (k ShippingMethodKind) String() string {
	return string(k)
}

func (k ShippingMethodKind) IsValid() bool {
	return k == ShippingMethodKindManual || k == ShippingMethodKindCarrier
}

func ParseShippingMethodKind(value string) (ShippingMethodKind, error) {
	kind := ShippingMethodKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid shipping method kind %q", value)
	}
	return kind, nil
}

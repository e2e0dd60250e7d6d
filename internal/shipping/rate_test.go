package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestCost(t *testing.T) {
	cases := []struct {
		name     string
		method   Manual
		subtotal string
		want     string
	}{
		{name: "no threshold", method: Manual{Price: dec("15")}, subtotal: "1000", want: "15"},
		{name: "below threshold", method: Manual{Price: dec("15"), FreeShippingThreshold: decPtr("200")}, subtotal: "199.99", want: "15"},
		{name: "threshold is inclusive", method: Manual{Price: dec("15"), FreeShippingThreshold: decPtr("200")}, subtotal: "200.00", want: "0"},
		{name: "above threshold", method: Manual{Price: dec("15"), FreeShippingThreshold: decPtr("200")}, subtotal: "350", want: "0"},
		{name: "zero threshold is always free", method: Manual{Price: dec("9.90"), FreeShippingThreshold: decPtr("0")}, subtotal: "0", want: "0"},
		{name: "rounded to cents", method: Manual{Price: dec("12.345")}, subtotal: "1", want: "12.35"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Cost(tc.method, dec(tc.subtotal))
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s got %s", tc.want, got)
			}
		})
	}
}

func TestParseLegacyCarrierName(t *testing.T) {
	cases := []struct {
		in   string
		id   int64
		want bool
	}{
		{in: "__me_service_2__", id: 2, want: true},
		{in: " __me_service_17__ ", id: 17, want: true},
		{in: "__me_service___", want: false},
		{in: "__me_service_0__", want: false},
		{in: "__me_service_x1__", want: false},
		{in: "__me_service_3", want: false},
		{in: "Motoboy", want: false},
	}
	for _, tc := range cases {
		id, ok := ParseLegacyCarrierName(tc.in)
		if ok != tc.want || id != tc.id {
			t.Fatalf("%q: expected (%d,%v) got (%d,%v)", tc.in, tc.id, tc.want, id, ok)
		}
	}
}

func TestMethodInputLegacyNameBecomesCarrier(t *testing.T) {
	m, err := MethodInput{Name: "__me_service_2__"}.toMethod()
	if err != nil {
		t.Fatalf("to method: %v", err)
	}
	if m.Carrier == nil || m.Carrier.ServiceID != 2 || m.Carrier.Name != "" || m.Manual != nil {
		t.Fatalf("expected carrier method for service 2, got %+v", m)
	}
}

func TestMethodInputValidation(t *testing.T) {
	neg, lo, hi := -1, 5, 2
	cases := map[string]MethodInput{
		"carrier without service": {Kind: "carrier", Name: "Correios"},
		"manual without name":     {Kind: "manual", Price: dec("10")},
		"negative price":          {Name: "Retirada", Price: dec("-1")},
		"negative threshold":      {Name: "Motoboy", FreeShippingThreshold: decPtr("-5")},
		"negative delivery time":  {Name: "Motoboy", DeliveryTimeMin: &neg},
		"inverted delivery time":  {Name: "Motoboy", DeliveryTimeMin: &lo, DeliveryTimeMax: &hi},
		"unknown kind":            {Kind: "drone", Name: "x"},
	}
	for name, in := range cases {
		if _, err := in.toMethod(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

package shipping

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vitrine-backend/internal/carrier"
	"github.com/angelmondragon/vitrine-backend/pkg/cep"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type MethodDTO struct {
	ID                    uuid.UUID                `json:"id"`
	Kind                  enums.ShippingMethodKind `json:"kind"`
	Name                  string                   `json:"name"`
	Price                 *decimal.Decimal         `json:"price,omitempty"`
	FreeShippingThreshold *decimal.Decimal         `json:"free_shipping_threshold,omitempty"`
	DeliveryTimeMin       *int                     `json:"delivery_time_min,omitempty"`
	DeliveryTimeMax       *int                     `json:"delivery_time_max,omitempty"`
	ServiceID             *int64                   `json:"service_id,omitempty"`
}

// ZoneDTO is the dashboard representation of a zone.
type ZoneDTO struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	SortOrder int         `json:"sort_order"`
	Ranges    []RangeDTO  `json:"ranges"`
	Methods   []MethodDTO `json:"methods"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func zoneDTO(z Zone) ZoneDTO {
	dto := ZoneDTO{
		ID:        z.ID,
		Name:      z.Name,
		SortOrder: z.SortOrder,
		Ranges:    make([]RangeDTO, 0, len(z.Ranges)),
		Methods:   make([]MethodDTO, 0, len(z.Methods)),
		CreatedAt: z.CreatedAt,
		UpdatedAt: z.UpdatedAt,
	}
	for _, r := range z.Ranges {
		dto.Ranges = append(dto.Ranges, RangeDTO{Start: cep.Format(r.Start), End: cep.Format(r.End)})
	}
	for _, m := range z.Methods {
		md := MethodDTO{ID: m.ID, Kind: m.Kind, Name: m.DisplayName()}
		if m.Manual != nil {
			price := m.Manual.Price
			md.Price = &price
			md.FreeShippingThreshold = m.Manual.FreeShippingThreshold
			md.DeliveryTimeMin = m.Manual.DeliveryTimeMin
			md.DeliveryTimeMax = m.Manual.DeliveryTimeMax
		}
		if m.Carrier != nil {
			id := m.Carrier.ServiceID
			md.ServiceID = &id
		}
		dto.Methods = append(dto.Methods, md)
	}
	return dto
}

type RangeInput struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// MethodInput accepts both the tagged form and the legacy reserved name. ID
// names an existing method of the zone on update; methods without one are new.
type MethodInput struct {
	ID                    *uuid.UUID       `json:"id"`
	Kind                  string           `json:"kind"`
	Name                  string           `json:"name"`
	Price                 decimal.Decimal  `json:"price"`
	FreeShippingThreshold *decimal.Decimal `json:"free_shipping_threshold"`
	DeliveryTimeMin       *int             `json:"delivery_time_min"`
	DeliveryTimeMax       *int             `json:"delivery_time_max"`
	ServiceID             *int64           `json:"service_id"`
}

type ZoneInput struct {
	Name      string        `json:"name" validate:"required"`
	SortOrder int           `json:"sort_order"`
	Ranges    []RangeInput  `json:"ranges" validate:"required,min=1,dive"`
	Methods   []MethodInput `json:"methods"`
}

// toZone validates input and normalizes it into a Zone.
func (in ZoneInput) toZone(storeID uuid.UUID) (Zone, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Zone{}, pkgerrors.Field("name", "required")
	}
	if len(in.Ranges) == 0 {
		return Zone{}, pkgerrors.Field("ranges", "at least one range is required")
	}
	zone := Zone{StoreID: storeID, Name: name, SortOrder: in.SortOrder}
	for i, r := range in.Ranges {
		rng, err := cep.NewRange(r.Start, r.End)
		if err != nil {
			return Zone{}, pkgerrors.Field(fmt.Sprintf("ranges[%d]", i), err.Error())
		}
		zone.Ranges = append(zone.Ranges, rng)
	}
	for i, m := range in.Methods {
		method, err := m.toMethod()
		if err != nil {
			return Zone{}, pkgerrors.Field(fmt.Sprintf("methods[%d]", i), err.Error())
		}
		if m.ID != nil {
			method.ID = *m.ID
		}
		zone.Methods = append(zone.Methods, method)
	}
	return zone, nil
}

func (in MethodInput) toMethod() (Method, error) {
	name := strings.TrimSpace(in.Name)
	kind := enums.ShippingMethodKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if kind == "" {
		kind = enums.ShippingMethodKindManual
		if id, ok := ParseLegacyCarrierName(name); ok {
			kind = enums.ShippingMethodKindCarrier
			in.ServiceID = &id
			name = ""
		}
	}

	switch kind {
	case enums.ShippingMethodKindCarrier:
		if in.ServiceID == nil || *in.ServiceID <= 0 {
			return Method{}, fmt.Errorf("service_id is required for carrier methods")
		}
		if _, legacy := ParseLegacyCarrierName(name); legacy {
			name = ""
		}
		return Method{Kind: kind, Carrier: &Carrier{ServiceID: *in.ServiceID, Name: name}}, nil
	case enums.ShippingMethodKindManual:
		if name == "" {
			return Method{}, fmt.Errorf("name is required")
		}
		if in.Price.IsNegative() {
			return Method{}, fmt.Errorf("price must not be negative")
		}
		if in.FreeShippingThreshold != nil && in.FreeShippingThreshold.IsNegative() {
			return Method{}, fmt.Errorf("free_shipping_threshold must not be negative")
		}
		if (in.DeliveryTimeMin != nil && *in.DeliveryTimeMin < 0) || (in.DeliveryTimeMax != nil && *in.DeliveryTimeMax < 0) {
			return Method{}, fmt.Errorf("delivery time must not be negative")
		}
		if in.DeliveryTimeMin != nil && in.DeliveryTimeMax != nil && *in.DeliveryTimeMin > *in.DeliveryTimeMax {
			return Method{}, fmt.Errorf("delivery_time_min exceeds delivery_time_max")
		}
		return Method{Kind: kind, Manual: &Manual{
			Name:                  name,
			Price:                 in.Price.Round(2),
			FreeShippingThreshold: in.FreeShippingThreshold,
			DeliveryTimeMin:       in.DeliveryTimeMin,
			DeliveryTimeMax:       in.DeliveryTimeMax,
		}}, nil
	}
	return Method{}, fmt.Errorf("invalid kind %q", in.Kind)
}

// QuoteInput asks for every option able to deliver to PostalCode.
type QuoteInput struct {
	PostalCode string
	Subtotal   decimal.Decimal
	Parcels    []carrier.Parcel
}

// QuoteOption is one selectable shipping choice. ID is the method id.
type QuoteOption struct {
	ID              string                   `json:"id"`
	ZoneID          uuid.UUID                `json:"zone_id"`
	ZoneName        string                   `json:"zone_name"`
	Kind            enums.ShippingMethodKind `json:"kind"`
	Name            string                   `json:"name"`
	Price           decimal.Decimal          `json:"price"`
	Free            bool                     `json:"free"`
	DeliveryTimeMin *int                     `json:"delivery_time_min,omitempty"`
	DeliveryTimeMax *int                     `json:"delivery_time_max,omitempty"`
	ServiceID       *int64                   `json:"service_id,omitempty"`
}

type QuoteResult struct {
	PostalCode         string        `json:"postal_code"`
	Options            []QuoteOption `json:"options"`
	CarrierUnavailable bool          `json:"carrier_unavailable,omitempty"`
}

func zoneFromModel(m models.DeliveryZone) Zone {
	z := Zone{
		ID:        m.ID,
		StoreID:   m.StoreID,
		Name:      m.Name,
		SortOrder: m.SortOrder,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, r := range m.Ranges {
		start, end := strings.TrimSpace(r.CEPStart), strings.TrimSpace(r.CEPEnd)
		z.Ranges = append(z.Ranges, cep.Range{Start: start, End: end})
	}
	for _, pm := range m.Methods {
		z.Methods = append(z.Methods, methodFromModel(pm))
	}
	return z
}

func methodFromModel(pm models.DeliveryZoneMethod) Method {
	method := Method{ID: pm.ID, Kind: pm.Kind}
	if pm.Kind == enums.ShippingMethodKindCarrier {
		var id int64
		if pm.CarrierServiceID != nil {
			id = *pm.CarrierServiceID
		}
		method.Carrier = &Carrier{ServiceID: id, Name: pm.Name}
		return method
	}
	method.Kind = enums.ShippingMethodKindManual
	manual := &Manual{
		Name:            pm.Name,
		Price:           pm.Price,
		DeliveryTimeMin: pm.DeliveryTimeMin,
		DeliveryTimeMax: pm.DeliveryTimeMax,
	}
	if pm.FreeShippingThreshold.Valid {
		threshold := pm.FreeShippingThreshold.Decimal
		manual.FreeShippingThreshold = &threshold
	}
	method.Manual = manual
	return method
}

func zoneToModel(z Zone) *models.DeliveryZone {
	m := &models.DeliveryZone{
		ID:        z.ID,
		StoreID:   z.StoreID,
		Name:      z.Name,
		SortOrder: z.SortOrder,
	}
	for i, r := range z.Ranges {
		m.Ranges = append(m.Ranges, models.DeliveryZoneRange{ZoneID: z.ID, Position: i, CEPStart: r.Start, CEPEnd: r.End})
	}
	for i, method := range z.Methods {
		pm := models.DeliveryZoneMethod{ID: method.ID, ZoneID: z.ID, Position: i, Kind: method.Kind}
		switch {
		case method.Carrier != nil:
			id := method.Carrier.ServiceID
			pm.Name = method.Carrier.Name
			pm.CarrierServiceID = &id
		case method.Manual != nil:
			pm.Name = method.Manual.Name
			pm.Price = method.Manual.Price
			pm.DeliveryTimeMin = method.Manual.DeliveryTimeMin
			pm.DeliveryTimeMax = method.Manual.DeliveryTimeMax
			if method.Manual.FreeShippingThreshold != nil {
				pm.FreeShippingThreshold = decimal.NewNullDecimal(*method.Manual.FreeShippingThreshold)
			}
		}
		m.Methods = append(m.Methods, pm)
	}
	return m
}

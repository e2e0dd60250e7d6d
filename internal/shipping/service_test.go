package shipping

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/vitrine-backend/internal/carrier"
	"github.com/angelmondragon/vitrine-backend/pkg/db"
	"github.com/angelmondragon/vitrine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubQuoter struct {
	quotes []carrier.Quote
	err    error
	calls  int
	dest   string
}

func (s *stubQuoter) Quote(_ context.Context, _ uuid.UUID, destination string, _ []carrier.Parcel) ([]carrier.Quote, error) {
	s.calls++
	s.dest = destination
	return s.quotes, s.err
}

func newShippingService(t *testing.T, quoter carrierQuoter) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	params := ServiceParams{
		Repo:   NewRepository(conn),
		Tx:     db.NewFromConn(conn),
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
	if quoter != nil {
		params.Carrier = quoter
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc, conn
}

func intPtr(v int) *int { return &v }

func sampleZoneInput() ZoneInput {
	return ZoneInput{
		Name:      "Grande SP",
		SortOrder: 1,
		Ranges: []RangeInput{
			{Start: "01000-000", End: "09999-999"},
			{Start: "06000", End: "06999"},
		},
		Methods: []MethodInput{
			{Name: "Motoboy", Price: dec("15"), FreeShippingThreshold: decPtr("200"), DeliveryTimeMin: intPtr(1), DeliveryTimeMax: intPtr(2)},
			{Name: "__me_service_2__"},
		},
	}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without repo")
	}
}

func TestCreateAndListZones(t *testing.T) {
	svc, _ := newShippingService(t, nil)
	ctx := context.Background()
	storeID := uuid.New()

	created, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)
	assert.Equal(t, "Grande SP", created.Name)
	require.Len(t, created.Ranges, 2)
	assert.Equal(t, "01000-000", created.Ranges[0].Start)
	assert.Equal(t, "06999-000", created.Ranges[1].End)
	require.Len(t, created.Methods, 2)
	assert.Equal(t, "manual", created.Methods[0].Kind.String())
	assert.Equal(t, "carrier", created.Methods[1].Kind.String())
	require.NotNil(t, created.Methods[1].ServiceID)
	assert.Equal(t, int64(2), *created.Methods[1].ServiceID)
	assert.Empty(t, created.Methods[1].Name)

	_, err = svc.CreateZone(ctx, storeID, ZoneInput{Name: "Aaa", Ranges: []RangeInput{{Start: "20000", End: "20999"}}})
	require.NoError(t, err)
	_, err = svc.CreateZone(ctx, uuid.New(), ZoneInput{Name: "Outra loja", Ranges: []RangeInput{{Start: "20000", End: "20999"}}})
	require.NoError(t, err)

	zones, err := svc.ListZones(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "Aaa", zones[0].Name)
	assert.Equal(t, "Grande SP", zones[1].Name)
}

func TestCreateZoneValidation(t *testing.T) {
	svc, _ := newShippingService(t, nil)
	cases := map[string]ZoneInput{
		"no name":        {Ranges: []RangeInput{{Start: "01000000", End: "01999999"}}},
		"no ranges":      {Name: "Vazia"},
		"inverted range": {Name: "Invertida", Ranges: []RangeInput{{Start: "02000000", End: "01000000"}}},
		"short code":     {Name: "Curta", Ranges: []RangeInput{{Start: "0100", End: "01999999"}}},
		"bad method":     {Name: "Metodo", Ranges: []RangeInput{{Start: "01000000", End: "01999999"}}, Methods: []MethodInput{{Kind: "carrier"}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateZone(context.Background(), uuid.New(), in)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateZoneReplacesChildren(t *testing.T) {
	svc, conn := newShippingService(t, nil)
	ctx := context.Background()
	storeID := uuid.New()

	created, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)

	updated, err := svc.UpdateZone(ctx, storeID, created.ID, ZoneInput{
		Name:    "Centro",
		Ranges:  []RangeInput{{Start: "01000000", End: "01099999"}},
		Methods: []MethodInput{{Kind: "manual", Name: "Retirada", Price: dec("0")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Centro", updated.Name)
	require.Len(t, updated.Ranges, 1)
	require.Len(t, updated.Methods, 1)
	assert.Equal(t, "Retirada", updated.Methods[0].Name)

	var ranges int64
	require.NoError(t, conn.Model(&models.DeliveryZoneRange{}).Where("zone_id = ?", created.ID).Count(&ranges).Error)
	assert.Equal(t, int64(1), ranges)

	_, err = svc.UpdateZone(ctx, uuid.New(), created.ID, sampleZoneInput())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for another store, got %v", err)
	}
}

func TestUpdateZoneKeepsMethodIDs(t *testing.T) {
	svc, _ := newShippingService(t, nil)
	ctx := context.Background()
	storeID := uuid.New()

	created, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)
	manualID, carrierID := created.Methods[0].ID, created.Methods[1].ID

	input := sampleZoneInput()
	input.Name = "Grande SP e ABC"
	input.Methods[0].ID = &manualID
	input.Methods[0].Price = dec("18")
	input.Methods[1].ID = &carrierID
	input.Methods = append(input.Methods, MethodInput{Name: "Retirada", Price: dec("0")})

	updated, err := svc.UpdateZone(ctx, storeID, created.ID, input)
	require.NoError(t, err)
	require.Len(t, updated.Methods, 3)
	assert.Equal(t, manualID, updated.Methods[0].ID)
	assert.Equal(t, carrierID, updated.Methods[1].ID)
	assert.True(t, dec("18").Equal(*updated.Methods[0].Price))

	serviceID, ok, err := svc.CarrierServiceFor(ctx, storeID, carrierID.String())
	require.NoError(t, err)
	assert.True(t, ok, "a renamed zone must still resolve its carrier method")
	assert.Equal(t, int64(2), serviceID)

	// dropping a method from the payload removes it
	input.Methods = input.Methods[1:2]
	updated, err = svc.UpdateZone(ctx, storeID, created.ID, input)
	require.NoError(t, err)
	require.Len(t, updated.Methods, 1)
	_, ok, err = svc.Method(ctx, storeID, manualID.String())
	require.NoError(t, err)
	assert.False(t, ok)

	foreign := uuid.New()
	input.Methods[0].ID = &foreign
	_, err = svc.UpdateZone(ctx, storeID, created.ID, input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for an unknown method id, got %v", err)
	}

	input.Methods = []MethodInput{{ID: &carrierID, Name: "__me_service_2__"}, {ID: &carrierID, Name: "__me_service_3__"}}
	_, err = svc.UpdateZone(ctx, storeID, created.ID, input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for a repeated method id, got %v", err)
	}
}

func TestDeleteZoneCascades(t *testing.T) {
	svc, conn := newShippingService(t, nil)
	ctx := context.Background()
	storeID := uuid.New()

	created, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)

	if err := svc.DeleteZone(ctx, uuid.New(), created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for another store, got %v", err)
	}
	require.NoError(t, svc.DeleteZone(ctx, storeID, created.ID))

	var ranges, methods int64
	require.NoError(t, conn.Model(&models.DeliveryZoneRange{}).Where("zone_id = ?", created.ID).Count(&ranges).Error)
	require.NoError(t, conn.Model(&models.DeliveryZoneMethod{}).Where("zone_id = ?", created.ID).Count(&methods).Error)
	assert.Zero(t, ranges)
	assert.Zero(t, methods)

	if _, err := svc.GetZone(ctx, storeID, created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected zone gone, got %v", err)
	}
}

func TestQuoteCombinesManualAndCarrier(t *testing.T) {
	quoter := &stubQuoter{quotes: []carrier.Quote{
		{ServiceID: 2, Name: "SEDEX", Company: "Correios", Price: dec("31.40"), DeliveryMin: 2, DeliveryMax: 3},
		{ServiceID: 1, Name: "PAC", Company: "Correios", Price: dec("22.10")},
	}}
	svc, _ := newShippingService(t, quoter)
	ctx := context.Background()
	storeID := uuid.New()

	_, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)
	_, err = svc.CreateZone(ctx, storeID, ZoneInput{
		Name:    "Centro",
		Ranges:  []RangeInput{{Start: "01000000", End: "01599999"}},
		Methods: []MethodInput{{Name: "Bike", Price: dec("8")}},
	})
	require.NoError(t, err)

	res, err := svc.Quote(ctx, storeID, QuoteInput{PostalCode: "01310100", Subtotal: dec("250")})
	require.NoError(t, err)
	assert.Equal(t, "01310-100", res.PostalCode)
	assert.Equal(t, "01310100", quoter.dest)
	assert.False(t, res.CarrierUnavailable)
	require.Len(t, res.Options, 3)

	assert.Equal(t, "Bike", res.Options[0].Name)
	assert.True(t, res.Options[0].Price.Equal(dec("8")))
	assert.Equal(t, "Motoboy", res.Options[1].Name)
	assert.True(t, res.Options[1].Free)
	assert.Equal(t, "Correios SEDEX", res.Options[2].Name)
	assert.True(t, res.Options[2].Price.Equal(dec("31.40")))
	require.NotNil(t, res.Options[2].DeliveryTimeMax)
	assert.Equal(t, 3, *res.Options[2].DeliveryTimeMax)
}

func TestQuoteKeepsManualOptionsWhenCarrierFails(t *testing.T) {
	quoter := &stubQuoter{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), "melhor envio calculate request")}
	svc, _ := newShippingService(t, quoter)
	ctx := context.Background()
	storeID := uuid.New()
	_, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)

	res, err := svc.Quote(ctx, storeID, QuoteInput{PostalCode: "01310100", Subtotal: dec("10")})
	require.NoError(t, err)
	assert.True(t, res.CarrierUnavailable)
	require.Len(t, res.Options, 1)
	assert.True(t, res.Options[0].Price.Equal(dec("15")))
}

func TestQuoteEdgeCases(t *testing.T) {
	quoter := &stubQuoter{}
	svc, _ := newShippingService(t, quoter)
	ctx := context.Background()
	storeID := uuid.New()
	_, err := svc.CreateZone(ctx, storeID, ZoneInput{
		Name:    "Manual",
		Ranges:  []RangeInput{{Start: "01000000", End: "01999999"}},
		Methods: []MethodInput{{Name: "Motoboy", Price: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	_, err = svc.Quote(ctx, storeID, QuoteInput{PostalCode: "abc"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"postal_code": "invalid"}, typed.Details())

	res, err := svc.Quote(ctx, storeID, QuoteInput{PostalCode: "90000-000"})
	require.NoError(t, err)
	assert.Empty(t, res.Options)

	_, err = svc.Quote(ctx, storeID, QuoteInput{PostalCode: "01000-000"})
	require.NoError(t, err)
	assert.Zero(t, quoter.calls, "zones without carrier methods must not call the carrier")
}

func TestCarrierServiceFor(t *testing.T) {
	svc, _ := newShippingService(t, nil)
	ctx := context.Background()
	storeID := uuid.New()
	zone, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)

	id, ok, err := svc.CarrierServiceFor(ctx, storeID, zone.Methods[1].ID.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	_, ok, err = svc.CarrierServiceFor(ctx, storeID, zone.Methods[0].ID.String())
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.CarrierServiceFor(ctx, uuid.New(), zone.Methods[1].ID.String())
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.CarrierServiceFor(ctx, storeID, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMethodLoadsManualPricing(t *testing.T) {
	svc, _ := newShippingService(t, nil)
	ctx := context.Background()
	storeID := uuid.New()
	zone, err := svc.CreateZone(ctx, storeID, sampleZoneInput())
	require.NoError(t, err)

	method, ok, err := svc.Method(ctx, storeID, zone.Methods[0].ID.String())
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, method.Manual)
	assert.Equal(t, "Motoboy", method.DisplayName())
	assert.True(t, Cost(*method.Manual, dec("250")).IsZero())

	_, ok, err = svc.Method(ctx, storeID, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)
}

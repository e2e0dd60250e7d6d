package carrier

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/melhorenvio"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubSettings struct {
	cfg *stores.CarrierSettings
	err error
}

func (s stubSettings) Load(context.Context, uuid.UUID) (*stores.CarrierSettings, error) {
	return s.cfg, s.err
}

type stubStores struct{}

func (stubStores) GetByID(_ context.Context, id uuid.UUID) (*stores.StoreDTO, error) {
	return &stores.StoreDTO{ID: id, Name: "Doceria", WhatsAppPhone: "5511988887777", Active: true}, nil
}

type stubProducts struct {
	products map[uuid.UUID]models.Product
}

func (s stubProducts) ProductsByID(context.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return s.products, nil
}

type fakeAPI struct {
	calls      []string
	quotes     []melhorenvio.Quote
	addresses  []melhorenvio.Address
	services   []melhorenvio.Service
	cartReq    *melhorenvio.CartRequest
	calcReq    *melhorenvio.CalculateRequest
	gotAddress string
	generate   map[string]melhorenvio.GenerateResult
	tracking   map[string]melhorenvio.Tracking
	cancel     map[string]melhorenvio.CancelResult
	err        error
}

func (f *fakeAPI) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeAPI) Calculate(_ context.Context, req melhorenvio.CalculateRequest) ([]melhorenvio.Quote, error) {
	f.calcReq = &req
	return f.quotes, f.record("calculate")
}

func (f *fakeAPI) AddToCart(_ context.Context, req melhorenvio.CartRequest) (*melhorenvio.CartItem, error) {
	f.cartReq = &req
	if err := f.record("cart"); err != nil {
		return nil, err
	}
	return &melhorenvio.CartItem{ID: "ship-1", Protocol: "ORD-1", Price: decimal.RequireFromString("21.90")}, nil
}

func (f *fakeAPI) Checkout(context.Context, ...string) (*melhorenvio.Purchase, error) {
	return &melhorenvio.Purchase{ID: "pur-1", Protocol: "PUR-1"}, f.record("checkout")
}

func (f *fakeAPI) Generate(context.Context, ...string) (map[string]melhorenvio.GenerateResult, error) {
	return f.generate, f.record("generate")
}

func (f *fakeAPI) Print(context.Context, ...string) (string, error) {
	return "https://melhorenvio.com.br/imprimir/abc", f.record("print")
}

func (f *fakeAPI) Tracking(context.Context, ...string) (map[string]melhorenvio.Tracking, error) {
	return f.tracking, f.record("tracking")
}

func (f *fakeAPI) Cancel(context.Context, string, string) (map[string]melhorenvio.CancelResult, error) {
	return f.cancel, f.record("cancel")
}

func (f *fakeAPI) ListAddresses(context.Context) ([]melhorenvio.Address, error) {
	return f.addresses, f.record("addresses")
}

func (f *fakeAPI) GetAddress(_ context.Context, id string) (*melhorenvio.Address, error) {
	f.gotAddress = id
	if err := f.record("address"); err != nil {
		return nil, err
	}
	return &melhorenvio.Address{ID: melhorenvio.FlexID(id), PostalCode: "04538-132", Address: "Av. Faria Lima"}, nil
}

func (f *fakeAPI) ListServices(context.Context) ([]melhorenvio.Service, error) {
	return f.services, f.record("services")
}

func configured() *stores.CarrierSettings {
	return &stores.CarrierSettings{
		Enabled:          true,
		Sandbox:          true,
		Token:            "tok",
		OriginPostalCode: "01310100",
		Defaults:         stores.DefaultParcel,
	}
}

func newTestService(t *testing.T, cfg *stores.CarrierSettings, api *fakeAPI, products productLookup) Service {
	t.Helper()
	svc, err := NewService(stubSettings{cfg: cfg}, stubStores{}, products, func(token string, sandbox bool) (API, error) {
		if token != cfg.Token {
			t.Fatalf("unexpected token %q", token)
		}
		return api, nil
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNotConfiguredMakesNoUpstreamCall(t *testing.T) {
	cases := map[string]*stores.CarrierSettings{
		"disabled":  {Token: "tok", OriginPostalCode: "01310100"},
		"no token":  {Enabled: true, OriginPostalCode: "01310100"},
		"no origin": {Enabled: true, Token: "tok"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{}
			svc, err := NewService(stubSettings{cfg: cfg}, stubStores{}, nil, func(string, bool) (API, error) {
				t.Fatalf("client must not be built")
				return nil, nil
			})
			if err != nil {
				t.Fatalf("new service: %v", err)
			}
			_, err = svc.Quote(context.Background(), uuid.New(), "20040020", nil)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation || typed.Message() != "melhor envio not configured" {
				t.Fatalf("expected not configured validation error, got %v", err)
			}
			if len(api.calls) != 0 {
				t.Fatalf("expected no upstream calls, got %v", api.calls)
			}
		})
	}
}

func TestQuoteFiltersErroredAndDisallowedServices(t *testing.T) {
	cfg := configured()
	cfg.AllowedServiceIDs = []int64{1, 2}
	api := &fakeAPI{quotes: []melhorenvio.Quote{
		{ID: 1, Name: "PAC", Price: decimal.RequireFromString("30.10"), Company: melhorenvio.Company{Name: "Correios"}},
		{ID: 2, Name: "SEDEX", Error: "Transportadora não atende este trecho."},
		{ID: 3, Name: ".Package", Price: decimal.RequireFromString("12.00")},
		{ID: 4, Name: "Mini", Price: decimal.RequireFromString("9.00")},
	}}
	svc := newTestService(t, cfg, api, nil)

	quotes, err := svc.Quote(context.Background(), uuid.New(), "20040-020", []Parcel{{WeightKg: decimal.RequireFromString("1.2"), Quantity: 2}})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(quotes) != 1 || quotes[0].ServiceID != 1 || quotes[0].Company != "Correios" {
		t.Fatalf("unexpected quotes %+v", quotes)
	}

	req := api.calcReq
	if req.From.PostalCode != "01310100" || req.To.PostalCode != "20040020" {
		t.Fatalf("unexpected postal codes %+v", req)
	}
	p := req.Products[0]
	if !p.Weight.Equal(decimal.RequireFromString("1.2")) || !p.Height.Equal(decimal.NewFromInt(2)) ||
		!p.Width.Equal(decimal.NewFromInt(11)) || !p.Length.Equal(decimal.NewFromInt(16)) || p.Quantity != 2 {
		t.Fatalf("expected per-field defaults, got %+v", p)
	}
}

func TestQuoteRejectsMalformedPostalCode(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(t, configured(), api, nil)
	if _, err := svc.Quote(context.Background(), uuid.New(), "123", nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no upstream calls")
	}
}

func TestAddToCartBuildsShipment(t *testing.T) {
	productID := uuid.New()
	variantID := uuid.New()
	products := stubProducts{products: map[uuid.UUID]models.Product{
		productID: {
			ID:       productID,
			WeightKg: decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
			HeightCm: decimal.NewNullDecimal(decimal.NewFromInt(10)),
			Variants: []models.ProductVariant{{
				ID:       variantID,
				HeightCm: decimal.NewNullDecimal(decimal.NewFromInt(12)),
			}},
		},
	}}
	api := &fakeAPI{
		addresses: []melhorenvio.Address{{ID: "7", PostalCode: "01310-100", Address: "Av. Paulista", Number: "1000"}},
		services:  []melhorenvio.Service{{ID: 2, Name: "SEDEX", Company: melhorenvio.Company{Name: "Correios"}}},
	}
	svc := newTestService(t, configured(), api, products)

	email := "ana@example.com"
	order := &models.Order{
		OrderNumber:       42,
		CustomerName:      "Ana",
		CustomerPhone:     "5521999990000",
		CustomerEmail:     &email,
		AddressStreet:     "Rua do Ouvidor",
		AddressNumber:     "50",
		AddressCity:       "Rio de Janeiro",
		AddressState:      "RJ",
		AddressPostalCode: "20040030",
		Total:             decimal.RequireFromString("157.35"),
		Items: []models.OrderItem{
			{Name: "Bolo", Quantity: 2, UnitPrice: decimal.RequireFromString("50"), ProductID: &productID, VariantID: &variantID,
				WidthCm: decimal.NewNullDecimal(decimal.NewFromInt(30))},
			{Name: "Vela", Quantity: 1, UnitPrice: decimal.RequireFromString("5")},
		},
	}

	res, err := svc.AddToCart(context.Background(), uuid.New(), order, 2)
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if res.ShipmentID != "ship-1" || res.ServiceID != 2 || res.ServiceName != "Correios SEDEX" {
		t.Fatalf("unexpected result %+v", res)
	}

	req := api.cartReq
	if !req.Options.InsuranceValue.Equal(order.Total) {
		t.Fatalf("insured value must be the order total, got %s", req.Options.InsuranceValue)
	}
	if req.From.Name != "Doceria" || req.From.PostalCode != "01310100" || req.From.Address != "Av. Paulista" {
		t.Fatalf("unexpected sender %+v", req.From)
	}
	if req.To.Email != email || req.To.PostalCode != "20040030" {
		t.Fatalf("unexpected recipient %+v", req.To)
	}

	first := req.Volumes[0]
	if !first.Width.Equal(decimal.NewFromInt(30)) || !first.Height.Equal(decimal.NewFromInt(12)) ||
		!first.Length.Equal(decimal.NewFromInt(16)) || !first.Weight.Equal(decimal.RequireFromString("1.0")) {
		t.Fatalf("unexpected first volume %+v", first)
	}
	second := req.Volumes[1]
	if !second.Weight.Equal(decimal.RequireFromString("0.3")) || !second.Height.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected store defaults on second volume, got %+v", second)
	}
}

func TestAddToCartUsesConfiguredOriginAddress(t *testing.T) {
	cfg := configured()
	addrID := "99"
	cfg.OriginAddressID = &addrID
	api := &fakeAPI{}
	svc := newTestService(t, cfg, api, nil)

	_, err := svc.AddToCart(context.Background(), uuid.New(), &models.Order{Total: decimal.NewFromInt(10)}, 1)
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if api.gotAddress != "99" {
		t.Fatalf("expected configured address lookup, got %q", api.gotAddress)
	}
	if api.cartReq.From.PostalCode != "04538132" {
		t.Fatalf("expected sender postal code from address, got %s", api.cartReq.From.PostalCode)
	}
	if len(api.cartReq.Volumes) != 1 {
		t.Fatalf("expected a default volume for an order without items")
	}
}

func TestAddToCartWithoutSenderAddress(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(t, configured(), api, nil)
	_, err := svc.AddToCart(context.Background(), uuid.New(), &models.Order{}, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, c := range api.calls {
		if c == "cart" {
			t.Fatalf("cart must not be called without a sender")
		}
	}
}

func TestFloorDimensions(t *testing.T) {
	s := &service{}
	vols, err := s.volumes(context.Background(), uuid.New(), stores.Parcel{}, []models.OrderItem{{Quantity: 1}})
	if err != nil {
		t.Fatalf("volumes: %v", err)
	}
	v := vols[0]
	if !v.Weight.Equal(floorWeightKg) || !v.Height.Equal(floorSideCm) || !v.Width.Equal(floorSideCm) || !v.Length.Equal(floorSideCm) {
		t.Fatalf("expected floor dimensions, got %+v", v)
	}
}

func TestUpstreamErrorsSurface(t *testing.T) {
	upstream := pkgerrors.Wrap(pkgerrors.CodeDependency, &melhorenvio.APIError{StatusCode: 422, Body: `{"message":"saldo insuficiente"}`}, "melhor envio checkout failed")
	api := &fakeAPI{err: upstream}
	svc := newTestService(t, configured(), api, nil)

	_, err := svc.Purchase(context.Background(), uuid.New(), "ship-1")
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error verbatim, got %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("expected a single attempt, got %v", api.calls)
	}
}

func TestGenerateTrackingCancelResults(t *testing.T) {
	code := "BR123"
	api := &fakeAPI{
		generate: map[string]melhorenvio.GenerateResult{"ship-1": {Status: false, Message: "sem saldo"}},
		tracking: map[string]melhorenvio.Tracking{"ship-1": {Status: "posted", MelhorEnvioTracking: &code}},
		cancel:   map[string]melhorenvio.CancelResult{"ship-1": {Canceled: true}},
	}
	svc := newTestService(t, configured(), api, nil)
	ctx := context.Background()
	storeID := uuid.New()

	if err := svc.GenerateLabel(ctx, storeID, "ship-1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected refused generate to fail, got %v", err)
	}
	tr, err := svc.Tracking(ctx, storeID, "ship-1")
	if err != nil {
		t.Fatalf("tracking: %v", err)
	}
	if tr.Status != "posted" || tr.Tracking == nil || *tr.Tracking != "BR123" {
		t.Fatalf("unexpected tracking %+v", tr)
	}
	if _, err := svc.Tracking(ctx, storeID, "ship-2"); err == nil {
		t.Fatalf("expected error for missing shipment in tracking response")
	}
	if err := svc.Cancel(ctx, storeID, "ship-1", ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	url, err := svc.PrintLabel(ctx, storeID, "ship-1")
	if err != nil || url == "" {
		t.Fatalf("print: %v %q", err, url)
	}
}

func TestListServicesAppliesAllowList(t *testing.T) {
	cfg := configured()
	cfg.AllowedServiceIDs = []int64{2}
	api := &fakeAPI{services: []melhorenvio.Service{{ID: 1}, {ID: 2}, {ID: 3}}}
	svc := newTestService(t, cfg, api, nil)
	services, err := svc.ListServices(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list services: %v", err)
	}
	if len(services) != 1 || services[0].ID != 2 {
		t.Fatalf("unexpected services %+v", services)
	}
}

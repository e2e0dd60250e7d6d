package carrier

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/cep"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/melhorenvio"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	floorWeightKg = decimal.RequireFromString("0.01")
	floorSideCm   = decimal.NewFromInt(1)
)

// Service drives Melhor Envio on behalf of a store.
type Service interface {
	Quote(ctx context.Context, storeID uuid.UUID, destination string, parcels []Parcel) ([]Quote, error)
	AddToCart(ctx context.Context, storeID uuid.UUID, order *models.Order, serviceID int64) (*CartResult, error)
	Purchase(ctx context.Context, storeID uuid.UUID, shipmentID string) (*melhorenvio.Purchase, error)
	GenerateLabel(ctx context.Context, storeID uuid.UUID, shipmentID string) error
	PrintLabel(ctx context.Context, storeID uuid.UUID, shipmentID string) (string, error)
	Tracking(ctx context.Context, storeID uuid.UUID, shipmentID string) (*TrackingResult, error)
	Cancel(ctx context.Context, storeID uuid.UUID, shipmentID, reason string) error
	ListAddresses(ctx context.Context, storeID uuid.UUID) ([]melhorenvio.Address, error)
	ListServices(ctx context.Context, storeID uuid.UUID) ([]melhorenvio.Service, error)
}

type service struct {
	settings settingsLoader
	stores   storeLookup
	products productLookup
	clients  ClientSource
}

// NewService wires the adapter. products may be nil, in which case item
// dimensions fall back straight to the store defaults.
func NewService(settings settingsLoader, storeSvc storeLookup, products productLookup, clients ClientSource) (Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("carrier settings loader required")
	}
	if storeSvc == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client source required")
	}
	return &service{settings: settings, stores: storeSvc, products: products, clients: clients}, nil
}

func errNotConfigured() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "melhor envio not configured")
}

// session loads the store config and builds a client. No upstream call is
// made when the store is not configured.
func (s *service) session(ctx context.Context, storeID uuid.UUID) (*stores.CarrierSettings, API, error) {
	cfg, err := s.settings.Load(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Configured() {
		return nil, nil, errNotConfigured()
	}
	client, err := s.clients(cfg.Token, cfg.Sandbox)
	if err != nil {
		return nil, nil, errNotConfigured()
	}
	return cfg, client, nil
}

func (s *service) Quote(ctx context.Context, storeID uuid.UUID, destination string, parcels []Parcel) ([]Quote, error) {
	to, ok := cep.Normalize(destination)
	if !ok {
		return nil, pkgerrors.Field("postal_code", "invalid")
	}
	cfg, client, err := s.session(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if len(parcels) == 0 {
		parcels = []Parcel{{Quantity: 1}}
	}

	req := melhorenvio.CalculateRequest{
		From:     melhorenvio.PostalCode{PostalCode: cfg.OriginPostalCode},
		To:       melhorenvio.PostalCode{PostalCode: to},
		Products: make([]melhorenvio.Product, 0, len(parcels)),
	}
	for i, p := range parcels {
		dims := stores.Parcel{WeightKg: p.WeightKg, HeightCm: p.HeightCm, WidthCm: p.WidthCm, LengthCm: p.LengthCm}.Or(cfg.Defaults)
		qty := p.Quantity
		if qty <= 0 {
			qty = 1
		}
		id := p.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		req.Products = append(req.Products, melhorenvio.Product{
			ID:             id,
			Width:          dims.WidthCm,
			Height:         dims.HeightCm,
			Length:         dims.LengthCm,
			Weight:         dims.WeightKg,
			InsuranceValue: p.InsuranceValue.Round(2),
			Quantity:       qty,
		})
	}

	upstream, err := client.Calculate(ctx, req)
	if err != nil {
		return nil, err
	}
	quotes := make([]Quote, 0, len(upstream))
	for _, q := range upstream {
		if strings.TrimSpace(q.Error) != "" || q.ID == 0 {
			continue
		}
		if !cfg.AllowsService(q.ID) {
			continue
		}
		quotes = append(quotes, quoteFromUpstream(q))
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Price.LessThan(quotes[j].Price)
	})
	return quotes, nil
}

func (s *service) AddToCart(ctx context.Context, storeID uuid.UUID, order *models.Order, serviceID int64) (*CartResult, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if serviceID <= 0 {
		return nil, pkgerrors.Field("service_id", "required")
	}
	cfg, client, err := s.session(ctx, storeID)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	sender, err := s.senderAddress(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	volumes, err := s.volumes(ctx, storeID, cfg.Defaults, order.Items)
	if err != nil {
		return nil, err
	}

	req := melhorenvio.CartRequest{
		Service:  serviceID,
		From:     senderParty(store, sender, cfg.OriginPostalCode),
		To:       recipientParty(order),
		Products: make([]melhorenvio.CartProduct, 0, len(order.Items)),
		Volumes:  volumes,
		Options: melhorenvio.CartOptions{
			InsuranceValue: order.Total.Round(2),
			NonCommercial:  true,
			Platform:       store.Name,
			Tags:           []melhorenvio.Tag{{Tag: fmt.Sprintf("#%d", order.OrderNumber)}},
		},
	}
	for _, item := range order.Items {
		req.Products = append(req.Products, melhorenvio.CartProduct{
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitaryValue: item.UnitPrice.Round(2),
		})
	}

	created, err := client.AddToCart(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &CartResult{
		ShipmentID: created.ID,
		ServiceID:  serviceID,
		Protocol:   created.Protocol,
		Price:      created.Price,
	}
	if created.ServiceID != 0 {
		result.ServiceID = created.ServiceID
	}
	result.ServiceName = s.serviceName(ctx, client, result.ServiceID)
	return result, nil
}

// serviceName is informational; a failed lookup leaves it empty.
func (s *service) serviceName(ctx context.Context, client API, id int64) string {
	services, err := client.ListServices(ctx)
	if err != nil {
		return ""
	}
	for _, svc := range services {
		if svc.ID == id {
			if svc.Company.Name != "" {
				return svc.Company.Name + " " + svc.Name
			}
			return svc.Name
		}
	}
	return ""
}

func (s *service) senderAddress(ctx context.Context, cfg *stores.CarrierSettings, client API) (*melhorenvio.Address, error) {
	if cfg.OriginAddressID != nil {
		return client.GetAddress(ctx, *cfg.OriginAddressID)
	}
	addresses, err := client.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "melhor envio account has no sender address")
	}
	return &addresses[0], nil
}

// volumes resolves each item's dimensions: the item itself, then its variant
// or product, then the store default, then a hard floor.
func (s *service) volumes(ctx context.Context, storeID uuid.UUID, defaults stores.Parcel, items []models.OrderItem) ([]melhorenvio.Volume, error) {
	products := map[uuid.UUID]models.Product{}
	if s.products != nil {
		var ids []uuid.UUID
		for _, item := range items {
			if item.ProductID != nil {
				ids = append(ids, *item.ProductID)
			}
		}
		if len(ids) > 0 {
			found, err := s.products.ProductsByID(ctx, storeID, ids)
			if err != nil {
				return nil, err
			}
			products = found
		}
	}

	floor := stores.Parcel{WeightKg: floorWeightKg, HeightCm: floorSideCm, WidthCm: floorSideCm, LengthCm: floorSideCm}
	volumes := make([]melhorenvio.Volume, 0, len(items))
	for _, item := range items {
		dims := itemParcel(item)
		if item.ProductID != nil {
			if product, ok := products[*item.ProductID]; ok {
				dims = dims.Or(catalogParcel(product, item.VariantID))
			}
		}
		dims = dims.Or(defaults).Or(floor)

		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		volumes = append(volumes, melhorenvio.Volume{
			Height: dims.HeightCm,
			Width:  dims.WidthCm,
			Length: dims.LengthCm,
			Weight: dims.WeightKg.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	if len(volumes) == 0 {
		dims := defaults.Or(floor)
		volumes = append(volumes, melhorenvio.Volume{Height: dims.HeightCm, Width: dims.WidthCm, Length: dims.LengthCm, Weight: dims.WeightKg})
	}
	return volumes, nil
}

func nullOr(v decimal.NullDecimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return decimal.Zero
}

func itemParcel(item models.OrderItem) stores.Parcel {
	return stores.Parcel{
		WeightKg: nullOr(item.WeightKg),
		HeightCm: nullOr(item.HeightCm),
		WidthCm:  nullOr(item.WidthCm),
		LengthCm: nullOr(item.LengthCm),
	}
}

func catalogParcel(product models.Product, variantID *uuid.UUID) stores.Parcel {
	base := stores.Parcel{
		WeightKg: nullOr(product.WeightKg),
		HeightCm: nullOr(product.HeightCm),
		WidthCm:  nullOr(product.WidthCm),
		LengthCm: nullOr(product.LengthCm),
	}
	if variantID == nil {
		return base
	}
	for _, v := range product.Variants {
		if v.ID == *variantID {
			return stores.Parcel{
				WeightKg: nullOr(v.WeightKg),
				HeightCm: nullOr(v.HeightCm),
				WidthCm:  nullOr(v.WidthCm),
				LengthCm: nullOr(v.LengthCm),
			}.Or(base)
		}
	}
	return base
}

func senderParty(store *stores.StoreDTO, addr *melhorenvio.Address, originPostalCode string) melhorenvio.Party {
	postal := originPostalCode
	if normalized, ok := cep.Normalize(addr.PostalCode); ok {
		postal = normalized
	}
	return melhorenvio.Party{
		Name:       store.Name,
		Phone:      store.WhatsAppPhone,
		Address:    addr.Address,
		Complement: addr.Complement,
		Number:     addr.Number,
		District:   addr.District,
		City:       addr.City.City,
		StateAbbr:  addr.City.State.StateAbbr,
		CountryID:  "BR",
		PostalCode: postal,
	}
}

func recipientParty(order *models.Order) melhorenvio.Party {
	party := melhorenvio.Party{
		Name:       order.CustomerName,
		Phone:      order.CustomerPhone,
		Address:    order.AddressStreet,
		Number:     order.AddressNumber,
		District:   order.AddressDistrict,
		City:       order.AddressCity,
		StateAbbr:  order.AddressState,
		CountryID:  "BR",
		PostalCode: order.AddressPostalCode,
	}
	if order.CustomerEmail != nil {
		party.Email = *order.CustomerEmail
	}
	if order.CustomerDocument != nil {
		party.Document = *order.CustomerDocument
	}
	if order.AddressComplement != nil {
		party.Complement = *order.AddressComplement
	}
	if order.Notes != nil {
		party.Note = *order.Notes
	}
	return party
}

func (s *service) Purchase(ctx context.Context, storeID uuid.UUID, shipmentID string) (*melhorenvio.Purchase, error) {
	_, client, err := s.session(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return client.Checkout(ctx, shipmentID)
}

func (s *service) GenerateLabel(ctx context.Context, storeID uuid.UUID, shipmentID string) error {
	_, client, err := s.session(ctx, storeID)
	if err != nil {
		return err
	}
	results, err := client.Generate(ctx, shipmentID)
	if err != nil {
		return err
	}
	if res, ok := results[shipmentID]; ok && !res.Status {
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = "label generation refused"
		}
		return pkgerrors.New(pkgerrors.CodeDependency, "melhor envio generate failed: "+msg)
	}
	return nil
}

func (s *service) PrintLabel(ctx context.Context, storeID uuid.UUID, shipmentID string) (string, error) {
	_, client, err := s.session(ctx, storeID)
	if err != nil {
		return "", err
	}
	return client.Print(ctx, shipmentID)
}

func (s *service) Tracking(ctx context.Context, storeID uuid.UUID, shipmentID string) (*TrackingResult, error) {
	_, client, err := s.session(ctx, storeID)
	if err != nil {
		return nil, err
	}
	results, err := client.Tracking(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	t, ok := results[shipmentID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "melhor envio tracking response missing shipment")
	}
	code := t.Tracking
	if code == nil || *code == "" {
		code = t.MelhorEnvioTracking
	}
	return &TrackingResult{ShipmentID: shipmentID, Status: t.Status, Tracking: code, Protocol: t.Protocol}, nil
}

func (s *service) Cancel(ctx context.Context, storeID uuid.UUID, shipmentID, reason string) error {
	_, client, err := s.session(ctx, storeID)
	if err != nil {
		return err
	}
	results, err := client.Cancel(ctx, shipmentID, reason)
	if err != nil {
		return err
	}
	if res, ok := results[shipmentID]; ok && !res.Canceled {
		return pkgerrors.New(pkgerrors.CodeDependency, "melhor envio refused to cancel the shipment")
	}
	return nil
}

func (s *service) ListAddresses(ctx context.Context, storeID uuid.UUID) ([]melhorenvio.Address, error) {
	_, client, err := s.session(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return client.ListAddresses(ctx)
}

// ListServices returns the account services, narrowed to the allow-list when one is set.
func (s *service) ListServices(ctx context.Context, storeID uuid.UUID) ([]melhorenvio.Service, error) {
	cfg, client, err := s.session(ctx, storeID)
	if err != nil {
		return nil, err
	}
	services, err := client.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	out := services[:0]
	for _, svc := range services {
		if cfg.AllowsService(svc.ID) {
			out = append(out, svc)
		}
	}
	return out, nil
}

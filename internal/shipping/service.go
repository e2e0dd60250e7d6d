package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vitrine-backend/internal/carrier"
	"github.com/angelmondragon/vitrine-backend/pkg/cep"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type carrierQuoter interface {
	Quote(ctx context.Context, storeID uuid.UUID, destination string, parcels []carrier.Parcel) ([]carrier.Quote, error)
}

// Service manages delivery zones and prices shipping for a destination.
type Service interface {
	ListZones(ctx context.Context, storeID uuid.UUID) ([]ZoneDTO, error)
	GetZone(ctx context.Context, storeID, zoneID uuid.UUID) (*ZoneDTO, error)
	CreateZone(ctx context.Context, storeID uuid.UUID, input ZoneInput) (*ZoneDTO, error)
	UpdateZone(ctx context.Context, storeID, zoneID uuid.UUID, input ZoneInput) (*ZoneDTO, error)
	DeleteZone(ctx context.Context, storeID, zoneID uuid.UUID) error
	Quote(ctx context.Context, storeID uuid.UUID, input QuoteInput) (*QuoteResult, error)
	Method(ctx context.Context, storeID uuid.UUID, methodID string) (*Method, bool, error)
	CarrierServiceFor(ctx context.Context, storeID uuid.UUID, methodID string) (int64, bool, error)
}

// ServiceParams configure the shipping service. Carrier may be nil, in which
// case carrier-bound methods are never offered.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Carrier carrierQuoter
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	carrier carrierQuoter
	logg    *logger.Logger
	matcher Matcher
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		carrier: params.Carrier,
		logg:    params.Logger,
	}, nil
}

func (s *service) zones(ctx context.Context, storeID uuid.UUID) ([]Zone, error) {
	rows, err := s.repo.ListZones(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery zones")
	}
	zones := make([]Zone, 0, len(rows))
	for _, row := range rows {
		zones = append(zones, zoneFromModel(row))
	}
	return zones, nil
}

func (s *service) ListZones(ctx context.Context, storeID uuid.UUID) ([]ZoneDTO, error) {
	zones, err := s.zones(ctx, storeID)
	if err != nil {
		return nil, err
	}
	out := make([]ZoneDTO, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneDTO(z))
	}
	return out, nil
}

func (s *service) GetZone(ctx context.Context, storeID, zoneID uuid.UUID) (*ZoneDTO, error) {
	row, err := s.repo.FindZone(ctx, storeID, zoneID)
	if err != nil {
		return nil, zoneLookupError(err, "load delivery zone")
	}
	dto := zoneDTO(zoneFromModel(*row))
	return &dto, nil
}

func (s *service) CreateZone(ctx context.Context, storeID uuid.UUID, input ZoneInput) (*ZoneDTO, error) {
	zone, err := input.toZone(storeID)
	if err != nil {
		return nil, err
	}
	for i := range zone.Methods {
		zone.Methods[i].ID = uuid.Nil
	}
	row := zoneToModel(zone)
	if err := s.repo.CreateZone(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery zone")
	}
	return s.GetZone(ctx, storeID, row.ID)
}

func (s *service) UpdateZone(ctx context.Context, storeID, zoneID uuid.UUID, input ZoneInput) (*ZoneDTO, error) {
	zone, err := input.toZone(storeID)
	if err != nil {
		return nil, err
	}
	zone.ID = zoneID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindZone(ctx, storeID, zoneID)
		if err != nil {
			return err
		}
		if err := checkMethodIDs(current.Methods, zone.Methods); err != nil {
			return err
		}
		return repo.UpdateZone(ctx, zoneToModel(zone))
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, zoneLookupError(err, "update delivery zone")
	}
	return s.GetZone(ctx, storeID, zoneID)
}

// checkMethodIDs accepts only ids of methods the zone already has, each at
// most once.
func checkMethodIDs(existing []models.DeliveryZoneMethod, methods []Method) error {
	known := make(map[uuid.UUID]bool, len(existing))
	for _, m := range existing {
		known[m.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(methods))
	for i, m := range methods {
		if m.ID == uuid.Nil {
			continue
		}
		field := fmt.Sprintf("methods[%d].id", i)
		if !known[m.ID] {
			return pkgerrors.Field(field, "is not a method of this zone")
		}
		if seen[m.ID] {
			return pkgerrors.Field(field, "is repeated")
		}
		seen[m.ID] = true
	}
	return nil
}

func (s *service) DeleteZone(ctx context.Context, storeID, zoneID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteZone(ctx, storeID, zoneID)
	})
	if err != nil {
		return zoneLookupError(err, "delete delivery zone")
	}
	return nil
}

func zoneLookupError(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery zone not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

// Quote lists every option for the destination across all matching zones.
// Manual prices come from Cost and carrier prices from a live quote. A
// failed carrier quote drops the carrier options and keeps the manual ones.
func (s *service) Quote(ctx context.Context, storeID uuid.UUID, input QuoteInput) (*QuoteResult, error) {
	code, ok := cep.Normalize(input.PostalCode)
	if !ok {
		return nil, pkgerrors.Field("postal_code", "invalid")
	}
	zones, err := s.zones(ctx, storeID)
	if err != nil {
		return nil, err
	}

	result := &QuoteResult{PostalCode: cep.Format(code), Options: []QuoteOption{}}
	matched := s.matcher.Match(code, zones)

	var carrierQuotes map[int64]carrier.Quote
	if needsCarrier(matched) {
		carrierQuotes, err = s.quoteCarrier(ctx, storeID, code, input)
		if err != nil {
			result.CarrierUnavailable = true
		}
	}

	for _, zone := range matched {
		for _, method := range zone.Methods {
			opt := QuoteOption{ID: method.ID.String(), ZoneID: zone.ID, ZoneName: zone.Name, Kind: method.Kind}
			switch {
			case method.Manual != nil:
				opt.Name = method.Manual.Name
				opt.Price = Cost(*method.Manual, input.Subtotal)
				opt.Free = opt.Price.IsZero()
				opt.DeliveryTimeMin = method.Manual.DeliveryTimeMin
				opt.DeliveryTimeMax = method.Manual.DeliveryTimeMax
			case method.Carrier != nil:
				q, found := carrierQuotes[method.Carrier.ServiceID]
				if !found {
					continue
				}
				id := q.ServiceID
				opt.ServiceID = &id
				opt.Name = method.Carrier.Name
				if opt.Name == "" {
					opt.Name = strings.TrimSpace(q.Company + " " + q.Name)
				}
				opt.Price = q.Price.Round(2)
				opt.Free = opt.Price.IsZero()
				if q.DeliveryMin > 0 || q.DeliveryMax > 0 {
					lo, hi := q.DeliveryMin, q.DeliveryMax
					opt.DeliveryTimeMin, opt.DeliveryTimeMax = &lo, &hi
				} else if q.DeliveryTime > 0 {
					days := q.DeliveryTime
					opt.DeliveryTimeMin, opt.DeliveryTimeMax = &days, &days
				}
			default:
				continue
			}
			result.Options = append(result.Options, opt)
		}
	}
	return result, nil
}

func needsCarrier(zones []Zone) bool {
	for _, z := range zones {
		for _, m := range z.Methods {
			if m.Kind == enums.ShippingMethodKindCarrier {
				return true
			}
		}
	}
	return false
}

func (s *service) quoteCarrier(ctx context.Context, storeID uuid.UUID, code string, input QuoteInput) (map[int64]carrier.Quote, error) {
	if s.carrier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "melhor envio not configured")
	}
	quotes, err := s.carrier.Quote(ctx, storeID, code, input.Parcels)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "carrier quote unavailable, offering manual methods only")
		return nil, err
	}
	byService := make(map[int64]carrier.Quote, len(quotes))
	for _, q := range quotes {
		byService[q.ServiceID] = q
	}
	return byService, nil
}

// Method loads one of the store's shipping methods by id. Unknown or
// malformed ids report false.
func (s *service) Method(ctx context.Context, storeID uuid.UUID, methodID string) (*Method, bool, error) {
	id, err := uuid.Parse(strings.TrimSpace(methodID))
	if err != nil {
		return nil, false, nil
	}
	row, err := s.repo.FindMethod(ctx, storeID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping method")
	}
	method := methodFromModel(*row)
	return &method, true, nil
}

// CarrierServiceFor resolves the Melhor Envio service bound to a method id.
// It reports false for manual methods and unknown ids.
func (s *service) CarrierServiceFor(ctx context.Context, storeID uuid.UUID, methodID string) (int64, bool, error) {
	method, ok, err := s.Method(ctx, storeID, methodID)
	if err != nil || !ok {
		return 0, false, err
	}
	if method.Carrier == nil || method.Carrier.ServiceID == 0 {
		return 0, false, nil
	}
	return method.Carrier.ServiceID, true, nil
}

package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/angelmondragon/vitrine-backend/pkg/redis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	actionLockTTL       = 30 * time.Second
	defaultCancelReason = "Cancelado pelo lojista"
)

// Service advances an order's shipment through the carrier lifecycle. Every
// transition is guarded by the current status and shipment_version.
type Service interface {
	Cart(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error)
	Checkout(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error)
	Generate(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error)
	Print(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error)
	Tracking(ctx context.Context, storeID, orderID uuid.UUID) (*ShipmentDTO, error)
	Cancel(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error)
}

type ServiceParams struct {
	Repo    Repository
	Carrier carrierOps
	Methods methodResolver
	Locker  orderLocker
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	carrier carrierOps
	methods methodResolver
	locker  orderLocker
	logg    *logger.Logger
}

// NewService wires the state machine. Locker may be nil, which disables the
// per-order action lock.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if params.Carrier == nil {
		return nil, fmt.Errorf("carrier service required")
	}
	if params.Methods == nil {
		return nil, fmt.Errorf("shipping method resolver required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		carrier: params.Carrier,
		methods: params.Methods,
		locker:  params.Locker,
		logg:    params.Logger,
	}, nil
}

// step performs the upstream call for one action and returns the shipment
// columns to persist plus the resulting status.
type step func(ctx context.Context, order *models.Order) (map[string]any, enums.ShipmentStatus, error)

func stateConflict(from enums.ShipmentStatus, action enums.ShipmentAction, message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithDetails(map[string]string{
		"current_status": string(from),
		"action":         string(action),
	})
}

func shipmentID(order *models.Order) string {
	if order.MelhorEnvioShipmentID == nil {
		return ""
	}
	return strings.TrimSpace(*order.MelhorEnvioShipmentID)
}

func (s *service) run(ctx context.Context, storeID, orderID uuid.UUID, action enums.ShipmentAction, do step) (*ShipmentDTO, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	ctx = s.logg.WithCarrierAction(ctx, action.String())

	release, err := s.lock(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.repo.FindOrder(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	from := order.MelhorEnvioStatus.Normalize()
	if !action.Allows(from) {
		return nil, stateConflict(from, action, fmt.Sprintf("cannot %s a shipment in status %s", action, from))
	}
	if action != enums.ShipmentActionCart && shipmentID(order) == "" {
		return nil, stateConflict(from, action, "order has no shipment")
	}

	updates, target, err := do(ctx, order)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("shipment %s failed: %v", action, err))
		return nil, err
	}
	updates["melhor_envio_status"] = target

	rows, err := s.repo.ApplyShipment(ctx, storeID, orderID, from, order.ShipmentVersion, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist shipment")
	}
	if rows == 0 {
		return nil, stateConflict(from, action, "shipment changed concurrently")
	}

	updated, err := s.repo.FindOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	s.logg.Info(ctx, fmt.Sprintf("shipment %s: %s -> %s", action, from, target))
	dto := FromOrder(updated)
	return &dto, nil
}

// lock takes the per-order action lock. A Redis failure is logged and the
// action proceeds; the conditional update still guards the write.
func (s *service) lock(ctx context.Context, storeID, orderID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := s.locker.OrderLockKey(storeID.String(), orderID.String())
	owner, err := s.locker.AcquireLock(ctx, key, actionLockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "another shipment action is in progress for this order")
		}
		s.logg.Warn(ctx, fmt.Sprintf("order lock unavailable: %v", err))
		return func() {}, nil
	}
	return func() {
		if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, owner); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("release order lock: %v", err))
		}
	}, nil
}

func (s *service) Cart(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error) {
	return s.run(ctx, storeID, input.OrderID, enums.ShipmentActionCart, func(ctx context.Context, order *models.Order) (map[string]any, enums.ShipmentStatus, error) {
		serviceID, err := s.serviceFor(ctx, storeID, order, input.ServiceID)
		if err != nil {
			return nil, "", err
		}
		created, err := s.carrier.AddToCart(ctx, storeID, order, serviceID)
		if err != nil {
			return nil, "", err
		}
		updates := map[string]any{
			"melhor_envio_shipment_id":     created.ShipmentID,
			"melhor_envio_service_id":      created.ServiceID,
			"melhor_envio_service_name":    nullableString(created.ServiceName),
			"melhor_envio_protocol":        nil,
			"melhor_envio_label_url":       nil,
			"melhor_envio_tracking_status": nil,
		}
		// a cancelled shipment's tracking code stays until the new one is posted
		return updates, enums.ShipmentStatusPending, nil
	})
}

// serviceFor prefers an explicit service id, then the carrier method the
// customer picked at checkout.
func (s *service) serviceFor(ctx context.Context, storeID uuid.UUID, order *models.Order, requested *int64) (int64, error) {
	if requested != nil && *requested > 0 {
		return *requested, nil
	}
	if order.ShippingMethodID != nil {
		id, ok, err := s.methods.CarrierServiceFor(ctx, storeID, *order.ShippingMethodID)
		if err != nil {
			return 0, err
		}
		if ok {
			return id, nil
		}
	}
	return 0, pkgerrors.Field("service_id", "required")
}

func (s *service) Checkout(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error) {
	return s.run(ctx, storeID, input.OrderID, enums.ShipmentActionCheckout, func(ctx context.Context, order *models.Order) (map[string]any, enums.ShipmentStatus, error) {
		purchase, err := s.carrier.Purchase(ctx, storeID, shipmentID(order))
		if err != nil {
			return nil, "", err
		}
		updates := map[string]any{}
		if purchase != nil && purchase.Protocol != "" {
			updates["melhor_envio_protocol"] = purchase.Protocol
		}
		return updates, enums.ShipmentStatusReleased, nil
	})
}

func (s *service) Generate(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error) {
	return s.run(ctx, storeID, input.OrderID, enums.ShipmentActionGenerate, func(ctx context.Context, order *models.Order) (map[string]any, enums.ShipmentStatus, error) {
		if err := s.carrier.GenerateLabel(ctx, storeID, shipmentID(order)); err != nil {
			return nil, "", err
		}
		return map[string]any{}, enums.ShipmentStatusGenerated, nil
	})
}

func (s *service) Print(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error) {
	return s.run(ctx, storeID, input.OrderID, enums.ShipmentActionPrint, func(ctx context.Context, order *models.Order) (map[string]any, enums.ShipmentStatus, error) {
		url, err := s.carrier.PrintLabel(ctx, storeID, shipmentID(order))
		if err != nil {
			return nil, "", err
		}
		return map[string]any{"melhor_envio_label_url": url}, enums.ShipmentStatusPrinted, nil
	})
}

// Tracking stores the upstream status verbatim. The local status only moves
// to posted or delivered.
func (s *service) Tracking(ctx context.Context, storeID, orderID uuid.UUID) (*ShipmentDTO, error) {
	return s.run(ctx, storeID, orderID, enums.ShipmentActionTracking, func(ctx context.Context, order *models.Order) (map[string]any, enums.ShipmentStatus, error) {
		result, err := s.carrier.Tracking(ctx, storeID, shipmentID(order))
		if err != nil {
			return nil, "", err
		}
		updates := map[string]any{"melhor_envio_tracking_status": nullableString(result.Status)}
		if result.Tracking != nil && *result.Tracking != "" {
			updates["melhor_envio_tracking"] = *result.Tracking
		}
		if result.Protocol != "" && order.MelhorEnvioProtocol == nil {
			updates["melhor_envio_protocol"] = result.Protocol
		}
		return updates, enums.TrackingTarget(order.MelhorEnvioStatus, result.Status), nil
	})
}

// Cancel clears the shipment id so a new cart can start. Tracking data is kept.
func (s *service) Cancel(ctx context.Context, storeID uuid.UUID, input ActionInput) (*ShipmentDTO, error) {
	return s.run(ctx, storeID, input.OrderID, enums.ShipmentActionCancel, func(ctx context.Context, order *models.Order) (map[string]any, enums.ShipmentStatus, error) {
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			reason = defaultCancelReason
		}
		if err := s.carrier.Cancel(ctx, storeID, shipmentID(order), reason); err != nil {
			return nil, "", err
		}
		return map[string]any{"melhor_envio_shipment_id": nil}, enums.ShipmentStatusCancelled, nil
	})
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

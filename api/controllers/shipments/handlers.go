package shipments

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vitrine-backend/api/middleware"
	"github.com/angelmondragon/vitrine-backend/api/responses"
	"github.com/angelmondragon/vitrine-backend/api/validators"
	"github.com/angelmondragon/vitrine-backend/internal/carrier"
	"github.com/angelmondragon/vitrine-backend/internal/fulfillment"
	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/angelmondragon/vitrine-backend/pkg/melhorenvio"
)

// CarrierService is the slice of the carrier adapter the dashboard calls
// directly, outside the shipment state machine.
type CarrierService interface {
	Quote(ctx context.Context, storeID uuid.UUID, destination string, parcels []carrier.Parcel) ([]carrier.Quote, error)
	ListAddresses(ctx context.Context, storeID uuid.UUID) ([]melhorenvio.Address, error)
	ListServices(ctx context.Context, storeID uuid.UUID) ([]melhorenvio.Service, error)
}

type storeLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*stores.StoreDTO, error)
}

type calculateRequest struct {
	PostalCode string           `json:"postal_code" validate:"required"`
	Parcels    []carrier.Parcel `json:"parcels" validate:"required,min=1"`
}

type publicCalculateRequest struct {
	StoreID    uuid.UUID        `json:"store_id" validate:"required"`
	PostalCode string           `json:"postal_code" validate:"required"`
	Parcels    []carrier.Parcel `json:"parcels" validate:"required,min=1"`
}

// Addresses lists the sender addresses registered on the store's carrier account.
func Addresses(svc CarrierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addresses, err := svc.ListAddresses(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addresses)
	}
}

func Services(svc CarrierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		services, err := svc.ListServices(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, services)
	}
}

// Calculate quotes the parcels against the store's carrier account.
func Calculate(svc CarrierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req calculateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quotes, err := svc.Quote(r.Context(), storeID, req.PostalCode, req.Parcels)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quotes)
	}
}

// PublicCalculate is the unauthenticated variant; the store comes from the body.
func PublicCalculate(svc CarrierService, storeSvc storeLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publicCalculateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := storeSvc.GetByID(r.Context(), req.StoreID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quotes, err := svc.Quote(r.Context(), req.StoreID, req.PostalCode, req.Parcels)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quotes)
	}
}

type actionFunc func(ctx context.Context, storeID uuid.UUID, input fulfillment.ActionInput) (*fulfillment.ShipmentDTO, error)

func shipmentAction(run actionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input fulfillment.ActionInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := run(r.Context(), storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func Cart(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return shipmentAction(svc.Cart, logg)
}

func Checkout(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return shipmentAction(svc.Checkout, logg)
}

func Generate(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return shipmentAction(svc.Generate, logg)
}

func Print(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return shipmentAction(svc.Print, logg)
}

func Cancel(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return shipmentAction(svc.Cancel, logg)
}

// Tracking refreshes the upstream status of the order's shipment.
func Tracking(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDQuery(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Tracking(r.Context(), storeID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

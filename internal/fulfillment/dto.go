package fulfillment

import (
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	"github.com/google/uuid"
)

// ShipmentDTO is the shipment sub-record of an order.
type ShipmentDTO struct {
	OrderID        uuid.UUID            `json:"order_id"`
	Status         enums.ShipmentStatus `json:"status"`
	ShipmentID     *string              `json:"shipment_id,omitempty"`
	ServiceID      *int64               `json:"service_id,omitempty"`
	ServiceName    *string              `json:"service_name,omitempty"`
	Protocol       *string              `json:"protocol,omitempty"`
	LabelURL       *string              `json:"label_url,omitempty"`
	Tracking       *string              `json:"tracking,omitempty"`
	TrackingStatus *string              `json:"tracking_status,omitempty"`
	Version        int                  `json:"version"`
}

func FromOrder(o *models.Order) ShipmentDTO {
	return ShipmentDTO{
		OrderID:        o.ID,
		Status:         o.MelhorEnvioStatus.Normalize(),
		ShipmentID:     o.MelhorEnvioShipmentID,
		ServiceID:      o.MelhorEnvioServiceID,
		ServiceName:    o.MelhorEnvioServiceName,
		Protocol:       o.MelhorEnvioProtocol,
		LabelURL:       o.MelhorEnvioLabelURL,
		Tracking:       o.MelhorEnvioTracking,
		TrackingStatus: o.MelhorEnvioTrackingStatus,
		Version:        o.ShipmentVersion,
	}
}

// ActionInput is the dashboard request body for shipment actions.
type ActionInput struct {
	OrderID   uuid.UUID `json:"order_id" validate:"required"`
	ServiceID *int64    `json:"service_id"`
	Reason    string    `json:"reason"`
}

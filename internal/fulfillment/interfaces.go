package fulfillment

import (
	"context"
	"time"

	"github.com/angelmondragon/vitrine-backend/internal/carrier"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/melhorenvio"
	"github.com/google/uuid"
)

// carrierOps is the part of the carrier adapter the state machine drives.
type carrierOps interface {
	AddToCart(ctx context.Context, storeID uuid.UUID, order *models.Order, serviceID int64) (*carrier.CartResult, error)
	Purchase(ctx context.Context, storeID uuid.UUID, shipmentID string) (*melhorenvio.Purchase, error)
	GenerateLabel(ctx context.Context, storeID uuid.UUID, shipmentID string) error
	PrintLabel(ctx context.Context, storeID uuid.UUID, shipmentID string) (string, error)
	Tracking(ctx context.Context, storeID uuid.UUID, shipmentID string) (*carrier.TrackingResult, error)
	Cancel(ctx context.Context, storeID uuid.UUID, shipmentID, reason string) error
}

// methodResolver maps the order's chosen shipping method to a carrier service.
type methodResolver interface {
	CarrierServiceFor(ctx context.Context, storeID uuid.UUID, methodID string) (int64, bool, error)
}

// orderLocker is satisfied by *redis.Client.
type orderLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, owner string) error
	OrderLockKey(storeID, orderID string) string
}

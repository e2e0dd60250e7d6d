package fulfillment

import (
	"context"
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads orders and writes their shipment columns.
type Repository interface {
	FindOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	ApplyShipment(ctx context.Context, storeID, orderID uuid.UUID, from enums.ShipmentStatus, version int, updates map[string]any) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND store_id = ?", orderID, storeID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyShipment writes updates only if the order is still in from at version.
// It returns the affected row count; zero means another writer got there first.
func (r *repository) ApplyShipment(ctx context.Context, storeID, orderID uuid.UUID, from enums.ShipmentStatus, version int, updates map[string]any) (int64, error) {
	values := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		values[k] = v
	}
	values["shipment_version"] = gorm.Expr("shipment_version + 1")
	values["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND store_id = ? AND melhor_envio_status = ? AND shipment_version = ?", orderID, storeID, from, version).
		Updates(values)
	return res.RowsAffected, res.Error
}

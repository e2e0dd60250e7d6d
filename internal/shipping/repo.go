package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists delivery zones with their ranges and methods.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListZones(ctx context.Context, storeID uuid.UUID) ([]models.DeliveryZone, error)
	FindZone(ctx context.Context, storeID, zoneID uuid.UUID) (*models.DeliveryZone, error)
	FindMethod(ctx context.Context, storeID, methodID uuid.UUID) (*models.DeliveryZoneMethod, error)
	CreateZone(ctx context.Context, zone *models.DeliveryZone) error
	UpdateZone(ctx context.Context, zone *models.DeliveryZone) error
	DeleteZone(ctx context.Context, storeID, zoneID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func orderedChildren(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *repository) ListZones(ctx context.Context, storeID uuid.UUID) ([]models.DeliveryZone, error) {
	var zones []models.DeliveryZone
	err := r.db.WithContext(ctx).
		Preload("Ranges", orderedChildren).
		Preload("Methods", orderedChildren).
		Where("store_id = ?", storeID).
		Order("sort_order ASC, name ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *repository) FindZone(ctx context.Context, storeID, zoneID uuid.UUID) (*models.DeliveryZone, error) {
	var zone models.DeliveryZone
	err := r.db.WithContext(ctx).
		Preload("Ranges", orderedChildren).
		Preload("Methods", orderedChildren).
		Where("id = ? AND store_id = ?", zoneID, storeID).
		First(&zone).Error
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// FindMethod loads a method only if its zone belongs to the store.
func (r *repository) FindMethod(ctx context.Context, storeID, methodID uuid.UUID) (*models.DeliveryZoneMethod, error) {
	var method models.DeliveryZoneMethod
	err := r.db.WithContext(ctx).
		Joins("JOIN delivery_zones ON delivery_zones.id = delivery_zone_methods.zone_id").
		Where("delivery_zone_methods.id = ? AND delivery_zones.store_id = ?", methodID, storeID).
		First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// CreateZone inserts the zone and its children.
func (r *repository) CreateZone(ctx context.Context, zone *models.DeliveryZone) error {
	if zone == nil {
		return fmt.Errorf("zone is required")
	}
	return r.db.WithContext(ctx).Create(zone).Error
}

// UpdateZone rewrites the zone row and its ranges. Methods carrying an id
// are updated in place, methods without one are inserted and the zone's
// other methods are removed. Callers run it inside a transaction.
func (r *repository) UpdateZone(ctx context.Context, zone *models.DeliveryZone) error {
	if zone == nil {
		return fmt.Errorf("zone is required")
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&models.DeliveryZone{}).
		Where("id = ? AND store_id = ?", zone.ID, zone.StoreID).
		Updates(map[string]any{
			"name":       zone.Name,
			"sort_order": zone.SortOrder,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := db.Where("zone_id = ?", zone.ID).Delete(&models.DeliveryZoneRange{}).Error; err != nil {
		return err
	}
	for i := range zone.Ranges {
		zone.Ranges[i].ZoneID = zone.ID
	}
	if len(zone.Ranges) > 0 {
		if err := db.Omit(clause.Associations).Create(&zone.Ranges).Error; err != nil {
			return err
		}
	}

	keep := make([]uuid.UUID, 0, len(zone.Methods))
	for _, m := range zone.Methods {
		if m.ID != uuid.Nil {
			keep = append(keep, m.ID)
		}
	}
	stale := db.Where("zone_id = ?", zone.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.DeliveryZoneMethod{}).Error; err != nil {
		return err
	}
	for i := range zone.Methods {
		method := &zone.Methods[i]
		method.ZoneID = zone.ID
		if method.ID == uuid.Nil {
			if err := db.Omit(clause.Associations).Create(method).Error; err != nil {
				return err
			}
			continue
		}
		if err := db.Omit(clause.Associations).Save(method).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteZone removes the zone with its ranges and methods. Callers run it
// inside a transaction.
func (r *repository) DeleteZone(ctx context.Context, storeID, zoneID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.DeliveryZone{}).Where("id = ? AND store_id = ?", zoneID, storeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	if err := r.deleteChildren(db, zoneID); err != nil {
		return err
	}
	return db.Where("id = ? AND store_id = ?", zoneID, storeID).Delete(&models.DeliveryZone{}).Error
}

func (r *repository) deleteChildren(db *gorm.DB, zoneID uuid.UUID) error {
	if err := db.Where("zone_id = ?", zoneID).Delete(&models.DeliveryZoneRange{}).Error; err != nil {
		return err
	}
	return db.Where("zone_id = ?", zoneID).Delete(&models.DeliveryZoneMethod{}).Error
}

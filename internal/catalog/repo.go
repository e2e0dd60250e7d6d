package catalog

import (
	"context"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]models.Product, error)
	ListActiveByCategories(ctx context.Context, storeID uuid.UUID, categoryIDs []uuid.UUID) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func preloadVariants(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}

func (r *repository) FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", preloadVariants).
		Where("store_id = ? AND id IN ?", storeID, ids).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListActiveByCategories(ctx context.Context, storeID uuid.UUID, categoryIDs []uuid.UUID) ([]models.Product, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", preloadVariants).
		Where("store_id = ? AND active = ? AND category_id IN ?", storeID, true, categoryIDs).
		Order("name ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

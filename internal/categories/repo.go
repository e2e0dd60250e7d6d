package categories

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists category rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, storeID uuid.UUID) ([]models.Category, error)
	Find(ctx context.Context, storeID, id uuid.UUID) (*models.Category, error)
	SlugTaken(ctx context.Context, storeID uuid.UUID, parentID *uuid.UUID, slug string, exclude uuid.UUID) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	DetachChildren(ctx context.Context, storeID, id uuid.UUID) error
	ClearProducts(ctx context.Context, storeID, id uuid.UUID) error
	Delete(ctx context.Context, storeID, id uuid.UUID) (int64, error)
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

func (r *repository) List(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("display_order ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Find(ctx context.Context, storeID, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).Where("id = ? AND store_id = ?", id, storeID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SlugTaken checks siblings explicitly because a NULL parent never collides
// in a unique index.
func (r *repository) SlugTaken(ctx context.Context, storeID uuid.UUID, parentID *uuid.UUID, slug string, exclude uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("store_id = ? AND slug = ? AND id <> ?", storeID, slug, exclude)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Create(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) Update(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	res := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ? AND store_id = ?", category.ID, category.StoreID).
		Updates(map[string]any{
			"parent_id":     category.ParentID,
			"name":          category.Name,
			"slug":          category.Slug,
			"description":   category.Description,
			"image_url":     category.ImageURL,
			"active":        category.Active,
			"display_order": category.DisplayOrder,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DetachChildren(ctx context.Context, storeID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("store_id = ? AND parent_id = ?", storeID, id).
		Updates(map[string]any{"parent_id": nil, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) ClearProducts(ctx context.Context, storeID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("store_id = ? AND category_id = ?", storeID, id).
		Update("category_id", nil).Error
}

func (r *repository) Delete(ctx context.Context, storeID, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND store_id = ?", id, storeID).Delete(&models.Category{})
	return res.RowsAffected, res.Error
}

package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles store and carrier config persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByCustomDomain(ctx context.Context, domain string) (*models.Store, error)
	FindCarrierConfig(ctx context.Context, storeID uuid.UUID) (*models.CarrierConfig, error)
	SaveCarrierConfig(ctx context.Context, cfg *models.CarrierConfig) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByID loads a store by its UUID.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindByCustomDomain(ctx context.Context, domain string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("lower(custom_domain) = ?", strings.ToLower(domain)).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindCarrierConfig(ctx context.Context, storeID uuid.UUID) (*models.CarrierConfig, error) {
	var cfg models.CarrierConfig
	if err := r.db.WithContext(ctx).Where("store_id = ?", storeID).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveCarrierConfig inserts or replaces the store's single config row.
func (r *repository) SaveCarrierConfig(ctx context.Context, cfg *models.CarrierConfig) error {
	if cfg == nil {
		return fmt.Errorf("carrier config is required")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"enabled", "sandbox", "token_sealed", "origin_postal_code",
				"default_weight_kg", "default_height_cm", "default_width_cm", "default_length_cm",
				"origin_address_id", "allowed_service_ids", "updated_at",
			}),
		}).
		Create(cfg).Error
}

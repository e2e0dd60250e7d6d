package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a node in a store's catalog tree. Slugs are unique among siblings.
type Category struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	StoreID      uuid.UUID  `gorm:"column:store_id;type:uuid;not null;index"`
	ParentID     *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	Name         string     `gorm:"column:name;not null"`
	Slug         string     `gorm:"column:slug;not null"`
	Description  *string    `gorm:"column:description"`
	ImageURL     *string    `gorm:"column:image_url"`
	Active       bool       `gorm:"column:active;not null"`
	DisplayOrder int        `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

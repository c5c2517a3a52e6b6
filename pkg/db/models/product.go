package models

import (
	"time"

	"github.com/google/uuid"
)

// Product groups the sellable variations of a catalog entry.
type Product struct {
	ID         uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string      `gorm:"column:name;not null"`
	CategoryID *uuid.UUID  `gorm:"column:category_id;type:uuid"`
	IsActive   bool        `gorm:"column:is_active;not null;default:true"`
	Variations []Variation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

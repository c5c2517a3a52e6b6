package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/types"
)

// Variation is the sellable unit of a product (a concrete size/finish/color
// configuration). Prices and offers hang off the variation, never the product.
type Variation struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	SKU        string               `gorm:"column:sku;not null"`
	ListPrice  decimal.Decimal      `gorm:"column:list_price;type:numeric(12,2);not null"`
	Attributes types.AttributePairs `gorm:"column:attributes;type:jsonb;serializer:json"`
	Offers     []OutletOffer        `gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

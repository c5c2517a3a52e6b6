package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutletOffer is a quantity-limited markdown attached to a variation.
// An offer whose RemainingQty reaches zero stays on record but is never
// selected again.
type OutletOffer struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariationID     uuid.UUID       `gorm:"column:variation_id;type:uuid;not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	RemainingQty    int             `gorm:"column:remaining_qty;not null;default:0"`
	Reason          string          `gorm:"column:reason;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one cart line. UnitPrice is a snapshot resolved through the
// outlet pricing funnel at add/update time; Subtotal is always
// quantity * unit price, recomputed on every mutation.
type CartItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID      uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	VariationID uuid.UUID       `gorm:"column:variation_id;type:uuid;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	WarehouseID *uuid.UUID      `gorm:"column:warehouse_id;type:uuid"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

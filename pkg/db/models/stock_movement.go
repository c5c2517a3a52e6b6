package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// StockMovement is the audit trail row appended for every stock change.
// QuantityDelta is negative for outbound movements, positive for returns
// and upward adjustments.
type StockMovement struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariationID      uuid.UUID          `gorm:"column:variation_id;type:uuid;not null;index"`
	WarehouseID      uuid.UUID          `gorm:"column:warehouse_id;type:uuid;not null;index"`
	Kind             enums.MovementKind `gorm:"column:kind;not null"`
	QuantityDelta    int                `gorm:"column:quantity_delta;not null"`
	PreviousQuantity int                `gorm:"column:previous_quantity;not null"`
	NewQuantity      int                `gorm:"column:new_quantity;not null"`
	OrderID          *uuid.UUID         `gorm:"column:order_id;type:uuid;index"`
	Notes            *string            `gorm:"column:notes"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// StockReservation holds the quantity set aside for a reserve_only order
// item until the physical movement is registered or the hold is released.
// One row per warehouse drawn on: the warehouse is picked when the hold is
// taken, because the reserved counter lives per (variation, warehouse).
type StockReservation struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null;index"`
	VariationID uuid.UUID `gorm:"column:variation_id;type:uuid;not null"`
	WarehouseID uuid.UUID `gorm:"column:warehouse_id;type:uuid;not null"`
	Quantity    int       `gorm:"column:quantity;not null"`
	Released    bool      `gorm:"column:released;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

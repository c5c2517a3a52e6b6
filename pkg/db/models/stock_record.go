package models

import (
	"time"

	"github.com/google/uuid"
)

// StockRecord tracks available and reserved quantities per
// (variation, warehouse). Quantity never goes negative and reserved never
// exceeds quantity; both are enforced by check constraints and by the
// conditional updates in internal/stock.
type StockRecord struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariationID uuid.UUID `gorm:"column:variation_id;type:uuid;not null;uniqueIndex:idx_stock_variation_warehouse"`
	WarehouseID uuid.UUID `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:idx_stock_variation_warehouse"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	Reserved    int       `gorm:"column:reserved;not null;default:0"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

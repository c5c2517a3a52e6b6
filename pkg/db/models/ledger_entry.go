package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// LedgerEntry is a bookkeeping row written whenever money is recognized:
// at sale, at consignment settlement, and as a reversal when consigned goods
// come back.
type LedgerEntry struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind       enums.LedgerEntryKind `gorm:"column:kind;not null"`
	OrderID    uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Amount     decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	OccurredAt time.Time             `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// Order is the persisted result of finalizing a cart. It is created exactly
// once and never edited by this service afterwards; consignment settlement
// and reservation pick-up only advance its status.
type Order struct {
	ID                      uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID                  uuid.UUID            `gorm:"column:cart_id;type:uuid;not null;uniqueIndex"`
	CustomerID              uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	PartnerID               *uuid.UUID           `gorm:"column:partner_id;type:uuid"`
	SalespersonID           uuid.UUID            `gorm:"column:salesperson_id;type:uuid;not null"`
	Notes                   *string              `gorm:"column:notes"`
	Consignment             bool                 `gorm:"column:consignment;not null;default:false"`
	ConsignmentDeadlineDays *int                 `gorm:"column:consignment_deadline_days"`
	CommitmentMode          enums.CommitmentMode `gorm:"column:commitment_mode;not null"`
	Status                  enums.OrderStatus    `gorm:"column:status;not null"`
	Total                   decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Items                   []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt               time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ConsignmentDeadlineAt computes the consignment response cutoff, or nil for
// non-consignment orders.
func (o *Order) ConsignmentDeadlineAt() *time.Time {
	if o == nil || !o.Consignment || o.ConsignmentDeadlineDays == nil {
		return nil
	}
	deadline := o.CreatedAt.AddDate(0, 0, *o.ConsignmentDeadlineDays)
	return &deadline
}

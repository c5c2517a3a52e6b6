package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// Cart is one in-progress sale for a customer. Multiple carts can exist
// concurrently for different customers; a converted cart is terminal and
// rejects every further mutation.
type Cart struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index"`
	PartnerID     *uuid.UUID       `gorm:"column:partner_id;type:uuid"`
	SalespersonID *uuid.UUID       `gorm:"column:salesperson_id;type:uuid"`
	Status        enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Items         []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// ItemDTO is one cart line as rendered to the console.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	VariationID uuid.UUID       `json:"id_variacao"`
	Quantity    int             `json:"quantidade"`
	UnitPrice   decimal.Decimal `json:"preco_unitario"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	WarehouseID *uuid.UUID      `json:"id_deposito,omitempty"`
}

// CartDTO is the authoritative cart snapshot. Every mutating operation
// returns one of these, freshly reloaded, so the console never renders a
// speculative local state.
type CartDTO struct {
	ID            uuid.UUID        `json:"id"`
	CustomerID    uuid.UUID        `json:"id_cliente"`
	PartnerID     *uuid.UUID       `json:"id_parceiro,omitempty"`
	SalespersonID *uuid.UUID       `json:"id_vendedor,omitempty"`
	Status        enums.CartStatus `json:"status"`
	Items         []ItemDTO        `json:"itens"`
	Total         decimal.Decimal  `json:"total"`
}

func snapshotFromModel(cart *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:            cart.ID,
		CustomerID:    cart.CustomerID,
		PartnerID:     cart.PartnerID,
		SalespersonID: cart.SalespersonID,
		Status:        cart.Status,
		Items:         make([]ItemDTO, 0, len(cart.Items)),
		Total:         decimal.Zero,
	}
	for _, item := range cart.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:          item.ID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			WarehouseID: item.WarehouseID,
		})
		dto.Total = dto.Total.Add(item.Subtotal)
	}
	return dto
}

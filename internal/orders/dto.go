package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// ItemDTO is one finalized order line.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	VariationID uuid.UUID       `json:"id_variacao"`
	Quantity    int             `json:"quantidade"`
	UnitPrice   decimal.Decimal `json:"preco_unitario"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	WarehouseID *uuid.UUID      `json:"id_deposito,omitempty"`
}

// ReservationDTO is one stock hold attached to an order line. The console's
// pick-a-location view is seeded from the unreleased ones.
type ReservationDTO struct {
	ID          uuid.UUID `json:"id"`
	OrderItemID uuid.UUID `json:"id_item"`
	VariationID uuid.UUID `json:"id_variacao"`
	WarehouseID uuid.UUID `json:"id_deposito"`
	Quantity    int       `json:"quantidade"`
	Released    bool      `json:"liberada"`
}

// OrderDTO is the full order as rendered to the console.
type OrderDTO struct {
	ID                      uuid.UUID            `json:"id"`
	CartID                  uuid.UUID            `json:"id_carrinho"`
	CustomerID              uuid.UUID            `json:"id_cliente"`
	PartnerID               *uuid.UUID           `json:"id_parceiro,omitempty"`
	SalespersonID           uuid.UUID            `json:"id_vendedor"`
	Notes                   *string              `json:"observacoes,omitempty"`
	Consignment             bool                 `json:"modo_consignacao"`
	ConsignmentDeadlineDays *int                 `json:"prazo_consignacao,omitempty"`
	ConsignmentDeadlineAt   *time.Time           `json:"prazo_consignacao_em,omitempty"`
	CommitmentMode          enums.CommitmentMode `json:"modo_compromisso"`
	Status                  enums.OrderStatus    `json:"status"`
	Total                   decimal.Decimal      `json:"total"`
	Items                   []ItemDTO            `json:"itens"`
	Reservations            []ReservationDTO     `json:"reservas,omitempty"`
	CreatedAt               time.Time            `json:"criado_em"`
}

// FromModel builds the order DTO, reservations included.
func FromModel(order *models.Order, reservations []models.StockReservation) *OrderDTO {
	dto := &OrderDTO{
		ID:                      order.ID,
		CartID:                  order.CartID,
		CustomerID:              order.CustomerID,
		PartnerID:               order.PartnerID,
		SalespersonID:           order.SalespersonID,
		Notes:                   order.Notes,
		Consignment:             order.Consignment,
		ConsignmentDeadlineDays: order.ConsignmentDeadlineDays,
		ConsignmentDeadlineAt:   order.ConsignmentDeadlineAt(),
		CommitmentMode:          order.CommitmentMode,
		Status:                  order.Status,
		Total:                   order.Total,
		Items:                   make([]ItemDTO, 0, len(order.Items)),
		CreatedAt:               order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:          item.ID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			WarehouseID: item.WarehouseID,
		})
	}
	for _, reservation := range reservations {
		dto.Reservations = append(dto.Reservations, ReservationDTO{
			ID:          reservation.ID,
			OrderItemID: reservation.OrderItemID,
			VariationID: reservation.VariationID,
			WarehouseID: reservation.WarehouseID,
			Quantity:    reservation.Quantity,
			Released:    reservation.Released,
		})
	}
	return dto
}

// ListResult is one order page plus the cursor for the next one.
type ListResult struct {
	Items      []OrderDTO `json:"itens"`
	NextCursor string     `json:"proximo_cursor,omitempty"`
}

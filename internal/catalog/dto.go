package catalog

import (
	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/types"
)

// VariationDTO is the catalog read shape consumed by the console.
type VariationDTO struct {
	ID          uuid.UUID            `json:"id"`
	ProductID   uuid.UUID            `json:"id_produto"`
	ProductName string               `json:"nome_produto"`
	SKU         string               `json:"sku"`
	Attributes  types.AttributePairs `json:"atributos"`
	Price       PriceQuote           `json:"preco"`
	StockTotal  int                  `json:"estoque_total"`
}

// ListResult is one catalog page plus the cursor for the next one.
type ListResult struct {
	Items      []VariationDTO `json:"itens"`
	NextCursor string         `json:"proximo_cursor,omitempty"`
}

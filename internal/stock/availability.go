package stock

import (
	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// LineAvailability carries everything needed to judge whether one cart line
// can be satisfied: the requested quantity, the optional warehouse the line
// is pinned to, and the per-warehouse stock snapshot prefetched for its
// variation.
type LineAvailability struct {
	LineID       uuid.UUID
	VariationID  uuid.UUID
	RequestedQty int
	WarehouseID  *uuid.UUID
	OnHand       map[uuid.UUID]int
	Reserved     map[uuid.UUID]int
}

// AvailableFor returns the quantity the line can draw on under the given
// commitment mode. A line pinned to a warehouse counts only that warehouse;
// otherwise the sum across warehouses counts. movement_now looks at physical
// stock, reserve_only at physical stock net of existing reservations
// (reservations stack, so held units are not reservable twice).
func (l LineAvailability) AvailableFor(mode enums.CommitmentMode) int {
	total := 0
	for warehouseID, onHand := range l.OnHand {
		if l.WarehouseID != nil && *l.WarehouseID != warehouseID {
			continue
		}
		free := onHand
		if mode == enums.CommitmentReserveOnly {
			free -= l.Reserved[warehouseID]
		}
		if free > 0 {
			total += free
		}
	}
	return total
}

// FindInsufficient returns the subset of lines whose requested quantity
// exceeds what is available under the given mode, preserving input order.
// An empty result means the whole set is satisfiable. Pure and read-only:
// this is the advisory pre-check. The authoritative check is the conditional
// update performed at commit time.
func FindInsufficient(lines []LineAvailability, mode enums.CommitmentMode) []LineAvailability {
	var insufficient []LineAvailability
	for _, line := range lines {
		if line.RequestedQty > line.AvailableFor(mode) {
			insufficient = append(insufficient, line)
		}
	}
	return insufficient
}

// LinesFromCartItems pairs each cart line with the availability snapshot of
// its variation.
func LinesFromCartItems(items []models.CartItem, availability map[uuid.UUID]VariationAvailability) []LineAvailability {
	lines := make([]LineAvailability, 0, len(items))
	for _, item := range items {
		snapshot := availability[item.VariationID]
		lines = append(lines, LineAvailability{
			LineID:       item.ID,
			VariationID:  item.VariationID,
			RequestedQty: item.Quantity,
			WarehouseID:  item.WarehouseID,
			OnHand:       snapshot.OnHand,
			Reserved:     snapshot.Reserved,
		})
	}
	return lines
}

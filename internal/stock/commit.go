package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
)

// Demand is one order item's draw on stock. WarehouseID pins the draw to a
// single warehouse; nil lets the engine spread it across warehouses with
// free stock, largest first. Callers run these functions inside the
// finalize transaction so a failed demand rolls back the whole order.
type Demand struct {
	OrderItemID uuid.UUID
	VariationID uuid.UUID
	WarehouseID *uuid.UUID
	Quantity    int
}

// Deduct registers the outbound movement for every demand. Each warehouse
// draw is a conditional update guarded by quantity - reserved >= qty, so
// held stock is never shipped out from under the order holding it, and an
// audit row is appended per draw.
func Deduct(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, demands []Demand) error {
	if err := validateDemands(demands); err != nil {
		return err
	}
	for _, demand := range demands {
		draws, err := allocate(ctx, tx, demand, deductStep)
		if err != nil {
			return err
		}
		for _, draw := range draws {
			movement := models.StockMovement{
				ID:               uuid.New(),
				VariationID:      demand.VariationID,
				WarehouseID:      draw.warehouseID,
				Kind:             enums.MovementSale,
				QuantityDelta:    -draw.qty,
				PreviousQuantity: draw.newQuantity + draw.qty,
				NewQuantity:      draw.newQuantity,
				OrderID:          &orderID,
			}
			if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
			}
		}
	}
	return nil
}

// Reserve takes a hold for every demand without moving physical stock.
// Guarded the same way as Deduct; one reservation row is created per
// warehouse drawn on.
func Reserve(ctx context.Context, tx *gorm.DB, demands []Demand) ([]models.StockReservation, error) {
	if err := validateDemands(demands); err != nil {
		return nil, err
	}
	var reservations []models.StockReservation
	for _, demand := range demands {
		draws, err := allocate(ctx, tx, demand, reserveStep)
		if err != nil {
			return nil, err
		}
		for _, draw := range draws {
			reservation := models.StockReservation{
				ID:          uuid.New(),
				OrderItemID: demand.OrderItemID,
				VariationID: demand.VariationID,
				WarehouseID: draw.warehouseID,
				Quantity:    draw.qty,
			}
			if err := tx.WithContext(ctx).Create(&reservation).Error; err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock reservation")
			}
			reservations = append(reservations, reservation)
		}
	}
	return reservations, nil
}

// ConsumeReservations turns the active holds of the given order items into
// physical outbound movements. Returns the consumed reservations.
func ConsumeReservations(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, orderItemIDs []uuid.UUID) ([]models.StockReservation, error) {
	reservations, err := activeReservations(ctx, tx, orderItemIDs)
	if err != nil {
		return nil, err
	}
	for _, reservation := range reservations {
		result := tx.WithContext(ctx).
			Model(&models.StockRecord{}).
			Where(
				"variation_id = ? AND warehouse_id = ? AND quantity >= ? AND reserved >= ?",
				reservation.VariationID, reservation.WarehouseID,
				reservation.Quantity, reservation.Quantity,
			).
			Updates(map[string]any{
				"quantity": gorm.Expr("quantity - ?", reservation.Quantity),
				"reserved": gorm.Expr("reserved - ?", reservation.Quantity),
			})
		if result.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "consume reservation")
		}
		if result.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation no longer backed by stock").
				WithDetails(map[string]any{"id_reserva": reservation.ID})
		}

		newQty, err := recordQuantity(ctx, tx, reservation.VariationID, reservation.WarehouseID)
		if err != nil {
			return nil, err
		}
		movement := models.StockMovement{
			ID:               uuid.New(),
			VariationID:      reservation.VariationID,
			WarehouseID:      reservation.WarehouseID,
			Kind:             enums.MovementReservationPick,
			QuantityDelta:    -reservation.Quantity,
			PreviousQuantity: newQty + reservation.Quantity,
			NewQuantity:      newQty,
			OrderID:          &orderID,
		}
		if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reservation pick")
		}
		if err := markReleased(ctx, tx, reservation.ID); err != nil {
			return nil, err
		}
	}
	return reservations, nil
}

// ReleaseReservations drops the active holds of the given order items,
// returning the stock to the free pool without any physical movement.
func ReleaseReservations(ctx context.Context, tx *gorm.DB, orderItemIDs []uuid.UUID) error {
	reservations, err := activeReservations(ctx, tx, orderItemIDs)
	if err != nil {
		return err
	}
	for _, reservation := range reservations {
		result := tx.WithContext(ctx).
			Model(&models.StockRecord{}).
			Where(
				"variation_id = ? AND warehouse_id = ? AND reserved >= ?",
				reservation.VariationID, reservation.WarehouseID, reservation.Quantity,
			).
			Update("reserved", gorm.Expr("reserved - ?", reservation.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "release reservation")
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation counter out of sync").
				WithDetails(map[string]any{"id_reserva": reservation.ID})
		}
		if err := markReleased(ctx, tx, reservation.ID); err != nil {
			return err
		}
	}
	return nil
}

// Restock puts returned goods back on hand, one audit row per demand. Every
// demand must name the warehouse receiving the return.
func Restock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, demands []Demand) error {
	if err := validateDemands(demands); err != nil {
		return err
	}
	for _, demand := range demands {
		if demand.WarehouseID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "restock demand missing warehouse")
		}
		result := tx.WithContext(ctx).
			Model(&models.StockRecord{}).
			Where("variation_id = ? AND warehouse_id = ?", demand.VariationID, *demand.WarehouseID).
			Update("quantity", gorm.Expr("quantity + ?", demand.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "restock")
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no stock record for returned goods").
				WithDetails(map[string]any{
					"id_variacao": demand.VariationID,
					"id_deposito": *demand.WarehouseID,
				})
		}

		newQty, err := recordQuantity(ctx, tx, demand.VariationID, *demand.WarehouseID)
		if err != nil {
			return err
		}
		movement := models.StockMovement{
			ID:               uuid.New(),
			VariationID:      demand.VariationID,
			WarehouseID:      *demand.WarehouseID,
			Kind:             enums.MovementConsignmentReturn,
			QuantityDelta:    demand.Quantity,
			PreviousQuantity: newQty - demand.Quantity,
			NewQuantity:      newQty,
			OrderID:          &orderID,
		}
		if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record restock movement")
		}
	}
	return nil
}

// draw is one successful conditional update against a single warehouse.
type draw struct {
	warehouseID uuid.UUID
	qty         int
	newQuantity int
}

// stepFunc attempts one guarded update taking qty units from the record.
// It reports whether the guard held.
type stepFunc func(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, qty int) (bool, error)

func deductStep(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, qty int) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.StockRecord{}).
		Where("id = ? AND quantity - reserved >= ?", recordID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "deduct stock")
	}
	return result.RowsAffected > 0, nil
}

func reserveStep(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, qty int) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.StockRecord{}).
		Where("id = ? AND quantity - reserved >= ?", recordID, qty).
		Update("reserved", gorm.Expr("reserved + ?", qty))
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "reserve stock")
	}
	return result.RowsAffected > 0, nil
}

// allocate spreads one demand across candidate warehouses. Records with the
// most free stock go first so unpinned demands touch as few warehouses as
// possible. A guard that fails under concurrency just moves on to the next
// candidate; whatever cannot be placed surfaces as a conflict.
func allocate(ctx context.Context, tx *gorm.DB, demand Demand, step stepFunc) ([]draw, error) {
	query := tx.WithContext(ctx).
		Where("variation_id = ?", demand.VariationID).
		Order("quantity - reserved DESC, warehouse_id ASC")
	if demand.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *demand.WarehouseID)
	}
	var records []models.StockRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock candidates")
	}

	remaining := demand.Quantity
	var draws []draw
	for _, record := range records {
		if remaining == 0 {
			break
		}
		free := record.Quantity - record.Reserved
		if free <= 0 {
			continue
		}
		qty := remaining
		if qty > free {
			qty = free
		}
		ok, err := step(ctx, tx, record.ID, qty)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		newQty, err := recordQuantity(ctx, tx, record.VariationID, record.WarehouseID)
		if err != nil {
			return nil, err
		}
		draws = append(draws, draw{warehouseID: record.WarehouseID, qty: qty, newQuantity: newQty})
		remaining -= qty
	}
	if remaining > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{
				"id_item":     demand.OrderItemID,
				"id_variacao": demand.VariationID,
				"solicitado":  demand.Quantity,
				"faltante":    remaining,
			})
	}
	return draws, nil
}

func validateDemands(demands []Demand) error {
	for _, demand := range demands {
		if demand.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("demand quantity must be positive, got %d", demand.Quantity))
		}
	}
	return nil
}

func activeReservations(ctx context.Context, tx *gorm.DB, orderItemIDs []uuid.UUID) ([]models.StockReservation, error) {
	if len(orderItemIDs) == 0 {
		return nil, nil
	}
	var reservations []models.StockReservation
	err := tx.WithContext(ctx).
		Where("order_item_id IN ? AND NOT released", orderItemIDs).
		Order("created_at ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
	}
	return reservations, nil
}

func markReleased(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) error {
	err := tx.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("id = ?", reservationID).
		Update("released", true).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reservation released")
	}
	return nil
}

func recordQuantity(ctx context.Context, tx *gorm.DB, variationID, warehouseID uuid.UUID) (int, error) {
	var record models.StockRecord
	err := tx.WithContext(ctx).
		Select("quantity").
		First(&record, "variation_id = ? AND warehouse_id = ?", variationID, warehouseID).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock record")
	}
	return record.Quantity, nil
}

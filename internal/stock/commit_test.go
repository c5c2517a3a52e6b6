package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/pkg/db/dbtest"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
)

func seedRecord(t *testing.T, db *gorm.DB, variationID, warehouseID uuid.UUID, quantity, reserved int) {
	t.Helper()
	record := models.StockRecord{
		ID:          uuid.New(),
		VariationID: variationID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		Reserved:    reserved,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed stock record: %v", err)
	}
}

func loadRecord(t *testing.T, db *gorm.DB, variationID, warehouseID uuid.UUID) models.StockRecord {
	t.Helper()
	var record models.StockRecord
	err := db.First(&record, "variation_id = ? AND warehouse_id = ?", variationID, warehouseID).Error
	if err != nil {
		t.Fatalf("load stock record: %v", err)
	}
	return record
}

func TestDeductSpreadsAcrossWarehouses(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	bigger, smaller := uuid.New(), uuid.New()
	seedRecord(t, db, variation, bigger, 3, 0)
	seedRecord(t, db, variation, smaller, 2, 0)

	orderID := uuid.New()
	demand := Demand{OrderItemID: uuid.New(), VariationID: variation, Quantity: 4}
	err := db.Transaction(func(tx *gorm.DB) error {
		return Deduct(ctx, tx, orderID, []Demand{demand})
	})
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}

	if got := loadRecord(t, db, variation, bigger); got.Quantity != 0 {
		t.Fatalf("bigger warehouse quantity = %d, want 0", got.Quantity)
	}
	if got := loadRecord(t, db, variation, smaller); got.Quantity != 1 {
		t.Fatalf("smaller warehouse quantity = %d, want 1", got.Quantity)
	}

	var movements []models.StockMovement
	if err := db.Order("created_at ASC").Find(&movements, "order_id = ?", orderID).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(movements))
	}
	for _, movement := range movements {
		if movement.Kind != enums.MovementSale {
			t.Fatalf("movement kind = %s, want %s", movement.Kind, enums.MovementSale)
		}
		if movement.PreviousQuantity+movement.QuantityDelta != movement.NewQuantity {
			t.Fatalf("movement arithmetic broken: %+v", movement)
		}
	}
	if movements[0].QuantityDelta+movements[1].QuantityDelta != -4 {
		t.Fatalf("movements should account for all 4 units")
	}
}

func TestDeductNeverTouchesHeldStock(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	warehouse := uuid.New()
	seedRecord(t, db, variation, warehouse, 5, 3)

	demand := Demand{OrderItemID: uuid.New(), VariationID: variation, Quantity: 3}
	err := db.Transaction(func(tx *gorm.DB) error {
		return Deduct(ctx, tx, uuid.New(), []Demand{demand})
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if got := loadRecord(t, db, variation, warehouse); got.Quantity != 5 {
		t.Fatalf("failed deduct must roll back, quantity = %d", got.Quantity)
	}
}

func TestDeductPinnedWarehouseIgnoresOthers(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	pinned, other := uuid.New(), uuid.New()
	seedRecord(t, db, variation, pinned, 2, 0)
	seedRecord(t, db, variation, other, 10, 0)

	demand := Demand{
		OrderItemID: uuid.New(),
		VariationID: variation,
		WarehouseID: &pinned,
		Quantity:    3,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return Deduct(ctx, tx, uuid.New(), []Demand{demand})
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := loadRecord(t, db, variation, other); got.Quantity != 10 {
		t.Fatalf("pinned demand must not draw on other warehouses")
	}
}

func TestDeductRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	demand := Demand{OrderItemID: uuid.New(), VariationID: uuid.New(), Quantity: 0}
	err := Deduct(context.Background(), db, uuid.New(), []Demand{demand})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReserveHoldsStockPerWarehouse(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	bigger, smaller := uuid.New(), uuid.New()
	seedRecord(t, db, variation, bigger, 3, 0)
	seedRecord(t, db, variation, smaller, 2, 0)

	itemID := uuid.New()
	var reservations []models.StockReservation
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		reservations, terr = Reserve(ctx, tx, []Demand{
			{OrderItemID: itemID, VariationID: variation, Quantity: 4},
		})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if len(reservations) != 2 {
		t.Fatalf("reservations = %d, want 2", len(reservations))
	}

	if got := loadRecord(t, db, variation, bigger); got.Quantity != 3 || got.Reserved != 3 {
		t.Fatalf("bigger warehouse state: %+v", got)
	}
	if got := loadRecord(t, db, variation, smaller); got.Quantity != 2 || got.Reserved != 1 {
		t.Fatalf("smaller warehouse state: %+v", got)
	}

	var movementCount int64
	if err := db.Model(&models.StockMovement{}).Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 0 {
		t.Fatal("reserving must not register physical movements")
	}
}

func TestReserveStacksOnExistingHolds(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	warehouse := uuid.New()
	seedRecord(t, db, variation, warehouse, 5, 4)

	_, err := Reserve(ctx, db, []Demand{
		{OrderItemID: uuid.New(), VariationID: variation, Quantity: 2},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConsumeReservations(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	warehouse := uuid.New()
	seedRecord(t, db, variation, warehouse, 5, 2)

	itemID := uuid.New()
	reservation := models.StockReservation{
		ID:          uuid.New(),
		OrderItemID: itemID,
		VariationID: variation,
		WarehouseID: warehouse,
		Quantity:    2,
	}
	if err := db.Create(&reservation).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	orderID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		consumed, terr := ConsumeReservations(ctx, tx, orderID, []uuid.UUID{itemID})
		if terr != nil {
			return terr
		}
		if len(consumed) != 1 {
			t.Fatalf("consumed = %d, want 1", len(consumed))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if got := loadRecord(t, db, variation, warehouse); got.Quantity != 3 || got.Reserved != 0 {
		t.Fatalf("record state after consume: %+v", got)
	}

	var movement models.StockMovement
	if err := db.First(&movement, "order_id = ?", orderID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Kind != enums.MovementReservationPick || movement.QuantityDelta != -2 {
		t.Fatalf("unexpected movement: %+v", movement)
	}

	var after models.StockReservation
	if err := db.First(&after, "id = ?", reservation.ID).Error; err != nil {
		t.Fatalf("reload reservation: %v", err)
	}
	if !after.Released {
		t.Fatal("consumed reservation should be marked released")
	}
}

func TestReleaseReservationsReturnsStockToPool(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	warehouse := uuid.New()
	seedRecord(t, db, variation, warehouse, 5, 2)

	itemID := uuid.New()
	reservation := models.StockReservation{
		ID:          uuid.New(),
		OrderItemID: itemID,
		VariationID: variation,
		WarehouseID: warehouse,
		Quantity:    2,
	}
	if err := db.Create(&reservation).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return ReleaseReservations(ctx, tx, []uuid.UUID{itemID})
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	if got := loadRecord(t, db, variation, warehouse); got.Quantity != 5 || got.Reserved != 0 {
		t.Fatalf("record state after release: %+v", got)
	}
	var movementCount int64
	if err := db.Model(&models.StockMovement{}).Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 0 {
		t.Fatal("releasing a hold is not a physical movement")
	}
}

func TestRestockRestoresQuantityWithAudit(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	variation := uuid.New()
	warehouse := uuid.New()
	seedRecord(t, db, variation, warehouse, 1, 0)

	orderID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return Restock(ctx, tx, orderID, []Demand{
			{OrderItemID: uuid.New(), VariationID: variation, WarehouseID: &warehouse, Quantity: 3},
		})
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}

	if got := loadRecord(t, db, variation, warehouse); got.Quantity != 4 {
		t.Fatalf("quantity after restock = %d, want 4", got.Quantity)
	}
	var movement models.StockMovement
	if err := db.First(&movement, "order_id = ?", orderID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Kind != enums.MovementConsignmentReturn || movement.QuantityDelta != 3 {
		t.Fatalf("unexpected movement: %+v", movement)
	}
	if movement.PreviousQuantity != 1 || movement.NewQuantity != 4 {
		t.Fatalf("movement quantities: %+v", movement)
	}
}

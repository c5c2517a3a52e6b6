package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/ledger"
	"github.com/rtavares/movelaria-backend/pkg/db/dbtest"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
)

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newOrdersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), ledger.NewRepository(db), gormRunner{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type orderFixture struct {
	order       models.Order
	item        models.OrderItem
	warehouseID uuid.UUID
}

// seedReservedOrder plants a reserve_only order with an active hold of the
// full quantity, backed by a stock record.
func seedReservedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, consignment bool, qty int) orderFixture {
	t.Helper()
	price := decimal.NewFromInt(100)
	variationID := uuid.New()
	warehouseID := uuid.New()

	record := models.StockRecord{
		ID:          uuid.New(),
		VariationID: variationID,
		WarehouseID: warehouseID,
		Quantity:    qty + 3,
		Reserved:    qty,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	order := models.Order{
		ID:             uuid.New(),
		CartID:         uuid.New(),
		CustomerID:     uuid.New(),
		SalespersonID:  uuid.New(),
		Consignment:    consignment,
		CommitmentMode: enums.CommitmentReserveOnly,
		Status:         status,
		Total:          price.Mul(decimal.NewFromInt(int64(qty))),
	}
	if consignment {
		days := 10
		order.ConsignmentDeadlineDays = &days
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	item := models.OrderItem{
		ID:          uuid.New(),
		OrderID:     order.ID,
		VariationID: variationID,
		Quantity:    qty,
		UnitPrice:   price,
		Subtotal:    order.Total,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}

	reservation := models.StockReservation{
		ID:          uuid.New(),
		OrderItemID: item.ID,
		VariationID: variationID,
		WarehouseID: warehouseID,
		Quantity:    qty,
	}
	if err := db.Create(&reservation).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	return orderFixture{order: order, item: item, warehouseID: warehouseID}
}

func TestRegisterMovementConsumesReservations(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc := newOrdersService(t, db)
	fx := seedReservedOrder(t, db, enums.OrderStatusReserved, false, 4)

	order, err := svc.RegisterMovement(ctx, fx.order.ID)
	if err != nil {
		t.Fatalf("register movement: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", order.Status)
	}

	var record models.StockRecord
	if err := db.First(&record, "warehouse_id = ?", fx.warehouseID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if record.Quantity != 3 || record.Reserved != 0 {
		t.Fatalf("stock state: %+v", record)
	}

	var movement models.StockMovement
	if err := db.First(&movement, "order_id = ?", fx.order.ID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Kind != enums.MovementReservationPick {
		t.Fatalf("movement kind = %s", movement.Kind)
	}
}

func TestRegisterMovementTwiceFails(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc := newOrdersService(t, db)
	fx := seedReservedOrder(t, db, enums.OrderStatusReserved, false, 2)

	if _, err := svc.RegisterMovement(ctx, fx.order.ID); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	_, err := svc.RegisterMovement(ctx, fx.order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRegisterMovementRejectsMovementNowOrders(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc := newOrdersService(t, db)

	order := models.Order{
		ID:             uuid.New(),
		CartID:         uuid.New(),
		CustomerID:     uuid.New(),
		SalespersonID:  uuid.New(),
		CommitmentMode: enums.CommitmentMovementNow,
		Status:         enums.OrderStatusConfirmed,
		Total:          decimal.NewFromInt(100),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	_, err := svc.RegisterMovement(ctx, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSettleConsignment(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc := newOrdersService(t, db)
	fx := seedReservedOrder(t, db, enums.OrderStatusConsignmentOpen, true, 3)

	order, err := svc.SettleConsignment(ctx, fx.order.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if order.Status != enums.OrderStatusConsignmentSettled {
		t.Fatalf("status = %s", order.Status)
	}

	// The held stock physically leaves on settlement.
	var record models.StockRecord
	if err := db.First(&record, "warehouse_id = ?", fx.warehouseID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if record.Quantity != 3 || record.Reserved != 0 {
		t.Fatalf("stock state: %+v", record)
	}

	var entry models.LedgerEntry
	if err := db.First(&entry, "order_id = ?", fx.order.ID).Error; err != nil {
		t.Fatalf("load ledger entry: %v", err)
	}
	if entry.Kind != enums.LedgerConsignmentSettled || !entry.Amount.Equal(fx.order.Total) {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}
}

func TestSettleRejectsNonConsignment(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc := newOrdersService(t, db)
	fx := seedReservedOrder(t, db, enums.OrderStatusReserved, false, 2)

	_, err := svc.SettleConsignment(ctx, fx.order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReturnConsignmentReleasesAndRestocks(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc := newOrdersService(t, db)
	fx := seedReservedOrder(t, db, enums.OrderStatusConsignmentOpen, true, 3)

	// Part of the consignment shipped before the customer changed their
	// mind: one picked unit plus two still held.
	err := db.Transaction(func(tx *gorm.DB) error {
		movement := models.StockMovement{
			ID:               uuid.New(),
			VariationID:      fx.item.VariationID,
			WarehouseID:      fx.warehouseID,
			Kind:             enums.MovementReservationPick,
			QuantityDelta:    -1,
			PreviousQuantity: 6,
			NewQuantity:      5,
			OrderID:          &fx.order.ID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		return tx.Model(&models.StockRecord{}).
			Where("warehouse_id = ?", fx.warehouseID).
			Updates(map[string]any{
				"quantity": gorm.Expr("quantity - 1"),
				"reserved": gorm.Expr("reserved - 1"),
			}).Error
	})
	if err != nil {
		t.Fatalf("seed partial pick: %v", err)
	}
	err = db.Model(&models.StockReservation{}).
		Where("order_item_id = ?", fx.item.ID).
		Update("quantity", 2).Error
	if err != nil {
		t.Fatalf("shrink reservation: %v", err)
	}

	order, err := svc.ReturnConsignment(ctx, fx.order.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if order.Status != enums.OrderStatusConsignmentReturned {
		t.Fatalf("status = %s", order.Status)
	}

	// Hold released and the shipped unit put back: quantity returns to the
	// original 6 with nothing reserved.
	var record models.StockRecord
	if err := db.First(&record, "warehouse_id = ?", fx.warehouseID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if record.Quantity != 6 || record.Reserved != 0 {
		t.Fatalf("stock state: %+v", record)
	}

	var entry models.LedgerEntry
	if err := db.First(&entry, "order_id = ?", fx.order.ID).Error; err != nil {
		t.Fatalf("load ledger entry: %v", err)
	}
	if entry.Kind != enums.LedgerReversal || !entry.Amount.Equal(fx.order.Total.Neg()) {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}
}

func TestExpireOverdueConsignments(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc := newOrdersService(t, db)

	first := seedReservedOrder(t, db, enums.OrderStatusConsignmentOpen, true, 1)
	second := seedReservedOrder(t, db, enums.OrderStatusConsignmentOpen, true, 1)

	// Before the 10 day window closes, nothing expires.
	expired, err := svc.ExpireOverdueConsignments(ctx, time.Now())
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired != 0 {
		t.Fatalf("expired = %d, want 0", expired)
	}

	expired, err = svc.ExpireOverdueConsignments(ctx, time.Now().AddDate(0, 0, 11))
	if err != nil {
		t.Fatalf("expire past deadline: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expired = %d, want 2", expired)
	}

	for _, fx := range []orderFixture{first, second} {
		var row models.Order
		if err := db.First(&row, "id = ?", fx.order.ID).Error; err != nil {
			t.Fatalf("load order: %v", err)
		}
		if row.Status != enums.OrderStatusConsignmentExpired {
			t.Fatalf("status = %s", row.Status)
		}
	}
}

package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/cart"
	"github.com/rtavares/movelaria-backend/internal/ledger"
	"github.com/rtavares/movelaria-backend/internal/orders"
	"github.com/rtavares/movelaria-backend/internal/parties"
	"github.com/rtavares/movelaria-backend/pkg/auth"
	"github.com/rtavares/movelaria-backend/pkg/db/dbtest"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type memIdempotency struct {
	keys map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: map[string]bool{}}
}

func (m *memIdempotency) ClaimIdempotencyKey(_ context.Context, scope, id string, _ time.Duration) (bool, error) {
	key := scope + ":" + id
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memIdempotency) ReleaseIdempotencyKey(_ context.Context, scope, id string) error {
	delete(m.keys, scope+":"+id)
	return nil
}

func newCheckout(t *testing.T, db *gorm.DB) (Service, *memIdempotency) {
	t.Helper()
	idem := newMemIdempotency()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(
		cart.NewRepository(db),
		orders.NewRepository(db),
		ledger.NewRepository(db),
		parties.NewRepository(db),
		gormRunner{db: db},
		idem,
		time.Minute,
		logg,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, idem
}

type seededLine struct {
	variationID uuid.UUID
	itemID      uuid.UUID
	quantity    int
	price       decimal.Decimal
}

func seedCartWithLines(t *testing.T, db *gorm.DB, quantities ...int) (uuid.UUID, []seededLine) {
	t.Helper()
	customer := models.Customer{ID: uuid.New(), Name: "Cliente"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	cartRow := models.Cart{ID: uuid.New(), CustomerID: customer.ID, Status: enums.CartStatusActive}
	if err := db.Create(&cartRow).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	lines := make([]seededLine, 0, len(quantities))
	for _, qty := range quantities {
		price := decimal.NewFromInt(100)
		item := models.CartItem{
			ID:          uuid.New(),
			CartID:      cartRow.ID,
			VariationID: uuid.New(),
			Quantity:    qty,
			UnitPrice:   price,
			Subtotal:    price.Mul(decimal.NewFromInt(int64(qty))),
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
		lines = append(lines, seededLine{
			variationID: item.VariationID,
			itemID:      item.ID,
			quantity:    qty,
			price:       price,
		})
	}
	return cartRow.ID, lines
}

func seedStock(t *testing.T, db *gorm.DB, variationID uuid.UUID, quantity int) uuid.UUID {
	t.Helper()
	warehouseID := uuid.New()
	warehouse := models.Warehouse{ID: warehouseID, Code: "CD-" + warehouseID.String()[:8], Name: "Deposito"}
	if err := db.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	record := models.StockRecord{
		ID:          uuid.New(),
		VariationID: variationID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return warehouseID
}

func operatorClaims() *auth.AccessTokenClaims {
	return &auth.AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleOperator}
}

func sellerClaims() *auth.AccessTokenClaims {
	return &auth.AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleSeller}
}

func TestFinalizeMovementNow(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 2, 3)
	for _, line := range lines {
		seedStock(t, db, line.variationID, 10)
	}

	actor := operatorClaims()
	order, err := svc.Finalize(ctx, cartID, actor, FinalizeInput{RegisterMovement: true})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status = %s, want %s", order.Status, enums.OrderStatusConfirmed)
	}
	if order.CommitmentMode != enums.CommitmentMovementNow {
		t.Fatalf("mode = %s", order.CommitmentMode)
	}
	if order.SalespersonID != actor.UserID {
		t.Fatal("salesperson should default to the actor")
	}
	if !order.Total.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("total = %s, want 500", order.Total)
	}
	if len(order.Reservations) != 0 {
		t.Fatal("movement_now must not hold reservations")
	}

	var record models.StockRecord
	if err := db.First(&record, "variation_id = ?", lines[0].variationID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if record.Quantity != 8 {
		t.Fatalf("stock after deduct = %d, want 8", record.Quantity)
	}

	var entry models.LedgerEntry
	if err := db.First(&entry, "order_id = ?", order.ID).Error; err != nil {
		t.Fatalf("load ledger entry: %v", err)
	}
	if entry.Kind != enums.LedgerSale || !entry.Amount.Equal(order.Total) {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}

	var cartRow models.Cart
	if err := db.First(&cartRow, "id = ?", cartID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if cartRow.Status != enums.CartStatusConverted {
		t.Fatal("cart should be converted")
	}
}

func TestFinalizeReserveOnly(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 4)
	seedStock(t, db, lines[0].variationID, 10)

	order, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{RegisterMovement: false})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if order.Status != enums.OrderStatusReserved {
		t.Fatalf("status = %s, want %s", order.Status, enums.OrderStatusReserved)
	}
	if len(order.Reservations) != 1 || order.Reservations[0].Quantity != 4 {
		t.Fatalf("reservations: %+v", order.Reservations)
	}

	var record models.StockRecord
	if err := db.First(&record, "variation_id = ?", lines[0].variationID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if record.Quantity != 10 || record.Reserved != 4 {
		t.Fatalf("stock state: %+v", record)
	}
}

func TestFinalizeConsignmentBlockedByShortLine(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 2, 5)
	seedStock(t, db, lines[0].variationID, 10)
	seedStock(t, db, lines[1].variationID, 3)

	deadline := 10
	_, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{
		Consignment:  true,
		DeadlineDays: &deadline,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("details: %#v", typed.Details())
	}
	blocking, ok := details["linhas_bloqueadas"].([]uuid.UUID)
	if !ok || len(blocking) != 1 || blocking[0] != lines[1].itemID {
		t.Fatalf("blocking lines: %#v", details["linhas_bloqueadas"])
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatal("blocked finalization must not create an order")
	}
	var cartRow models.Cart
	if err := db.First(&cartRow, "id = ?", cartID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if cartRow.Status != enums.CartStatusActive {
		t.Fatal("blocked finalization must leave the cart active")
	}
}

func TestFinalizeNonConsignmentBypassesGateButConflictsAtCommit(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	// Requested 5 with 3 on hand: the consignment gate does not apply, so
	// the rejection comes from the stock commit and must surface verbatim.
	cartID, lines := seedCartWithLines(t, db, 5)
	seedStock(t, db, lines[0].variationID, 3)

	_, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{RegisterMovement: true})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	var record models.StockRecord
	if err := db.First(&record, "variation_id = ?", lines[0].variationID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if record.Quantity != 3 {
		t.Fatal("failed finalization must roll back stock")
	}
	var cartRow models.Cart
	if err := db.First(&cartRow, "id = ?", cartID).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if cartRow.Status != enums.CartStatusActive {
		t.Fatal("failed finalization must leave the cart active")
	}
}

func TestFinalizeConsignmentOpens(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 2)
	seedStock(t, db, lines[0].variationID, 5)

	deadline := 15
	order, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{
		Consignment:  true,
		DeadlineDays: &deadline,
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if order.Status != enums.OrderStatusConsignmentOpen {
		t.Fatalf("status = %s", order.Status)
	}
	if order.ConsignmentDeadlineDays == nil || *order.ConsignmentDeadlineDays != 15 {
		t.Fatalf("deadline days: %v", order.ConsignmentDeadlineDays)
	}
	if order.ConsignmentDeadlineAt == nil {
		t.Fatal("deadline timestamp missing")
	}

	var entry models.LedgerEntry
	if err := db.First(&entry, "order_id = ?", order.ID).Error; err != nil {
		t.Fatalf("load ledger entry: %v", err)
	}
	if entry.Kind != enums.LedgerConsignmentOpened {
		t.Fatalf("ledger kind = %s", entry.Kind)
	}
}

func TestFinalizeDeadlineValidation(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 1)
	seedStock(t, db, lines[0].variationID, 5)

	for _, days := range []*int{nil, intPtr(0), intPtr(31)} {
		_, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{
			Consignment:  true,
			DeadlineDays: days,
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("deadline %v: expected validation error, got %v", days, err)
		}
		fields, ok := typed.Details().(map[string]string)
		if !ok || fields["prazo_consignacao"] == "" {
			t.Fatalf("deadline %v: field error map missing, got %#v", days, typed.Details())
		}
	}
}

func TestFinalizeSalespersonOverride(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	target := models.User{ID: uuid.New(), Name: "Vendedora", Email: "v@movelaria.test", Role: enums.RoleSeller, IsActive: true}
	if err := db.Create(&target).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cartID, lines := seedCartWithLines(t, db, 1)
	seedStock(t, db, lines[0].variationID, 5)

	_, err := svc.Finalize(ctx, cartID, sellerClaims(), FinalizeInput{
		RegisterMovement: true,
		SalespersonID:    &target.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("seller override should be forbidden, got %v", err)
	}

	order, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{
		RegisterMovement: true,
		SalespersonID:    &target.ID,
	})
	if err != nil {
		t.Fatalf("operator override: %v", err)
	}
	if order.SalespersonID != target.ID {
		t.Fatal("salesperson override not applied")
	}
}

func TestFinalizeDuplicateSubmission(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, idem := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 1)
	seedStock(t, db, lines[0].variationID, 5)

	// Simulate the first click still in flight.
	if ok, _ := idem.ClaimIdempotencyKey(ctx, idempotencyScope, cartID.String(), time.Minute); !ok {
		t.Fatal("priming claim failed")
	}
	_, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{RegisterMovement: true})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeIdempotency {
		t.Fatalf("expected idempotency error, got %v", err)
	}

	// Once the claim clears, the same cart can finalize.
	if err := idem.ReleaseIdempotencyKey(ctx, idempotencyScope, cartID.String()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{RegisterMovement: true}); err != nil {
		t.Fatalf("finalize after release: %v", err)
	}
}

func TestFinalizeFailureReleasesClaim(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 5)
	seedStock(t, db, lines[0].variationID, 1)

	_, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{RegisterMovement: true})
	if err == nil {
		t.Fatal("expected conflict")
	}

	// The failed attempt must not poison the retry after restock.
	err = db.Model(&models.StockRecord{}).
		Where("variation_id = ?", lines[0].variationID).
		Update("quantity", 10).Error
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if _, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{RegisterMovement: true}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestFinalizeConvertedCart(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, _ := seedCartWithLines(t, db, 1)
	err := db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", enums.CartStatusConverted).Error
	if err != nil {
		t.Fatalf("convert cart: %v", err)
	}

	_, err = svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{RegisterMovement: true})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestFinalizeRejectsOverrideForForeignItem(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 2)
	warehouseID := seedStock(t, db, lines[0].variationID, 10)

	foreignItemID := uuid.New()
	_, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{
		RegisterMovement: true,
		WarehouseByItem:  map[uuid.UUID]uuid.UUID{foreignItemID: warehouseID},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("details: %#v", typed.Details())
	}
	unknown, ok := details["id_carrinho_item"].([]uuid.UUID)
	if !ok || len(unknown) != 1 || unknown[0] != foreignItemID {
		t.Fatalf("unknown items: %#v", details["id_carrinho_item"])
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatal("rejected override must not create an order")
	}
}

func TestFinalizeRejectsUnknownWarehouseOverride(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 2)
	seedStock(t, db, lines[0].variationID, 10)

	bogusWarehouseID := uuid.New()
	_, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{
		RegisterMovement: true,
		WarehouseByItem:  map[uuid.UUID]uuid.UUID{lines[0].itemID: bogusWarehouseID},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("details: %#v", typed.Details())
	}
	unknown, ok := details["id_deposito"].([]uuid.UUID)
	if !ok || len(unknown) != 1 || unknown[0] != bogusWarehouseID {
		t.Fatalf("unknown warehouses: %#v", details["id_deposito"])
	}
}

func TestFinalizeOverrideDirectsLineToWarehouse(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	ctx := context.Background()
	svc, _ := newCheckout(t, db)

	cartID, lines := seedCartWithLines(t, db, 2)
	seedStock(t, db, lines[0].variationID, 1)
	second := seedStock(t, db, lines[0].variationID, 10)

	order, err := svc.Finalize(ctx, cartID, operatorClaims(), FinalizeInput{
		RegisterMovement: true,
		WarehouseByItem:  map[uuid.UUID]uuid.UUID{lines[0].itemID: second},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].WarehouseID == nil || *order.Items[0].WarehouseID != second {
		t.Fatalf("order items: %+v", order.Items)
	}

	var record models.StockRecord
	if err := db.First(&record, "variation_id = ? AND warehouse_id = ?", lines[0].variationID, second).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if record.Quantity != 8 {
		t.Fatalf("overridden warehouse quantity = %d, want 8", record.Quantity)
	}
}

func intPtr(v int) *int {
	return &v
}

package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/repo"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
)

// Repository wires stock persistence helpers. The write path lives in
// commit.go; this file holds the read side.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// WarehouseStock is one row of the per-variation stock view.
type WarehouseStock struct {
	WarehouseID   uuid.UUID `json:"id_deposito"`
	WarehouseCode string    `json:"codigo_deposito"`
	WarehouseName string    `json:"nome_deposito"`
	Quantity      int       `json:"quantidade"`
	Reserved      int       `json:"reservado"`
	Available     int       `json:"disponivel"`
}

// ListByVariation returns the per-warehouse breakdown for one variation,
// ordered by warehouse code.
func (r *Repository) ListByVariation(ctx context.Context, variationID uuid.UUID) ([]WarehouseStock, error) {
	var rows []WarehouseStock
	err := r.DB(ctx).
		Model(&models.StockRecord{}).
		Select(
			"stock_records.warehouse_id",
			"warehouses.code AS warehouse_code",
			"warehouses.name AS warehouse_name",
			"stock_records.quantity",
			"stock_records.reserved",
			"stock_records.quantity - stock_records.reserved AS available",
		).
		Joins("JOIN warehouses ON warehouses.id = stock_records.warehouse_id").
		Where("stock_records.variation_id = ?", variationID).
		Order("warehouses.code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock by variation")
	}
	return rows, nil
}

// ListWarehouses returns every warehouse ordered by code.
func (r *Repository) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	err := r.DB(ctx).
		Order("code ASC").
		Find(&warehouses).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	return warehouses, nil
}

// TotalsForVariations returns the physical quantity summed across warehouses
// for each variation. Variations without stock rows are absent from the map.
func (r *Repository) TotalsForVariations(ctx context.Context, variationIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(variationIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}
	var rows []struct {
		VariationID uuid.UUID
		Total       int
	}
	err := r.DB(ctx).
		Model(&models.StockRecord{}).
		Select("variation_id", "SUM(quantity) AS total").
		Where("variation_id IN ?", variationIDs).
		Group("variation_id").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum stock totals")
	}
	totals := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		totals[row.VariationID] = row.Total
	}
	return totals, nil
}

// VariationAvailability is the per-warehouse snapshot FindInsufficient
// consumes for one variation.
type VariationAvailability struct {
	OnHand   map[uuid.UUID]int
	Reserved map[uuid.UUID]int
}

// AvailabilityForVariations loads the per-warehouse snapshot for the given
// variations in one query. Every requested variation gets an entry, empty
// when no stock rows exist.
func (r *Repository) AvailabilityForVariations(ctx context.Context, variationIDs []uuid.UUID) (map[uuid.UUID]VariationAvailability, error) {
	result := make(map[uuid.UUID]VariationAvailability, len(variationIDs))
	for _, id := range variationIDs {
		result[id] = VariationAvailability{
			OnHand:   map[uuid.UUID]int{},
			Reserved: map[uuid.UUID]int{},
		}
	}
	if len(variationIDs) == 0 {
		return result, nil
	}

	var records []models.StockRecord
	err := r.DB(ctx).
		Where("variation_id IN ?", variationIDs).
		Find(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock availability")
	}
	for _, record := range records {
		snapshot := result[record.VariationID]
		snapshot.OnHand[record.WarehouseID] = record.Quantity
		snapshot.Reserved[record.WarehouseID] = record.Reserved
		result[record.VariationID] = snapshot
	}
	return result, nil
}

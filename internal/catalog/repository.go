package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/repo"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/pagination"
)

// Repository wires catalog persistence helpers.
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

// ListFilters narrows a catalog page.
type ListFilters struct {
	Name        string
	CategoryIDs []uuid.UUID
	OutletOnly  bool
	Attributes  map[string]string
	InStockOnly *bool
}

// FindVariation loads a variation with its offers.
func (r *Repository) FindVariation(ctx context.Context, id uuid.UUID) (*models.Variation, error) {
	var variation models.Variation
	err := r.DB(ctx).
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&variation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variation")
	}
	return &variation, nil
}

// ListVariations returns one cursor page of variations matching the filters,
// offers preloaded, newest first.
func (r *Repository) ListVariations(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Variation, string, error) {
	query := r.DB(ctx).
		Model(&models.Variation{}).
		Joins("JOIN products ON products.id = variations.product_id").
		Where("products.is_active")

	if filters.Name != "" {
		query = query.Where("products.name ILIKE ?", "%"+filters.Name+"%")
	}
	if len(filters.CategoryIDs) > 0 {
		query = query.Where("products.category_id IN ?", filters.CategoryIDs)
	}
	if filters.OutletOnly {
		query = query.Where(
			"EXISTS (SELECT 1 FROM outlet_offers o WHERE o.variation_id = variations.id AND o.remaining_qty > 0)",
		)
	}
	for name, value := range filters.Attributes {
		query = query.Where(
			"variations.attributes @> ?",
			fmt.Sprintf(`[{"nome":%q,"valor":%q}]`, name, value),
		)
	}
	if filters.InStockOnly != nil {
		stockExists := "EXISTS (SELECT 1 FROM stock_records s WHERE s.variation_id = variations.id AND s.quantity - s.reserved > 0)"
		if *filters.InStockOnly {
			query = query.Where(stockExists)
		} else {
			query = query.Where("NOT " + stockExists)
		}
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(variations.created_at, variations.id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var variations []models.Variation
	err = query.
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("variations.created_at DESC, variations.id DESC").
		Limit(limit + 1).
		Find(&variations).Error
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variations")
	}

	next := ""
	if len(variations) > limit {
		variations = variations[:limit]
		last := variations[len(variations)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return variations, next, nil
}

// ProductNames resolves product display names for the given products.
func (r *Repository) ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	var rows []struct {
		ID   uuid.UUID
		Name string
	}
	err := r.DB(ctx).
		Model(&models.Product{}).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product names")
	}
	names := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

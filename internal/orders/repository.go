package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/repo"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/pagination"
)

// Repository wires order persistence helpers.
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

// Create persists an order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

// Find loads an order with its items in insertion order.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// ListFilters narrows an order page.
type ListFilters struct {
	CustomerID      *uuid.UUID
	Status          *enums.OrderStatus
	ConsignmentOnly bool
}

// List returns one cursor page of orders matching the filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, string, error) {
	query := r.DB(ctx).Model(&models.Order{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ConsignmentOnly {
		query = query.Where("consignment")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var orders []models.Order
	err = query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	next := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, next, nil
}

// TransitionStatus advances an order's status. The conditional update is
// the arbiter when two transitions race: rows affected zero means the order
// left the expected state.
func (r *Repository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) error {
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Update("status", to)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "transition order status")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order not in an eligible status").
			WithDetails(map[string]any{"status_esperado": from})
	}
	return nil
}

// ListOpenConsignments loads every consignment still awaiting the
// customer's decision.
func (r *Repository) ListOpenConsignments(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB(ctx).
		Where("consignment AND status = ?", enums.OrderStatusConsignmentOpen).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open consignments")
	}
	return orders, nil
}

// Reservations loads every hold attached to the order's items.
func (r *Repository) Reservations(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error) {
	var reservations []models.StockReservation
	err := r.DB(ctx).
		Joins("JOIN order_items ON order_items.id = stock_reservations.order_item_id").
		Where("order_items.order_id = ?", orderID).
		Order("stock_reservations.created_at ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order reservations")
	}
	return reservations, nil
}

// Movements loads the order's stock audit trail, oldest first.
func (r *Repository) Movements(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order movements")
	}
	return movements, nil
}

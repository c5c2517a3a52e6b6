package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/repo"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
)

// Repository wires cart persistence helpers.
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

// FindCart loads a cart with its items in insertion order.
func (r *Repository) FindCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&cart, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return &cart, nil
}

// FindActiveByCustomer loads the customer's open cart, or nil when the
// customer has none.
func (r *Repository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("customer_id = ? AND status = ?", customerID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	return &cart, nil
}

// CreateCart persists a new cart.
func (r *Repository) CreateCart(ctx context.Context, cart *models.Cart) error {
	if err := r.DB(ctx).Create(cart).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return nil
}

// FindItem loads one line of the given cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return &item, nil
}

// FindItemByVariation loads the cart line holding the given variation, or
// nil when the variation is not in the cart yet.
func (r *Repository) FindItemByVariation(ctx context.Context, cartID, variationID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		First(&item, "cart_id = ? AND variation_id = ?", cartID, variationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item by variation")
	}
	return &item, nil
}

// CreateItem persists a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	return nil
}

// SaveItem writes back a mutated cart line.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	if err := r.DB(ctx).Save(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return nil
}

// DeleteItem removes a cart line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	err := r.DB(ctx).
		Delete(&models.CartItem{}, "id = ?", itemID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

// DeleteItemsByCart removes every line of the given cart.
func (r *Repository) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	err := r.DB(ctx).
		Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	return nil
}

// ConvertCart flips an active cart to converted. The conditional update is
// the arbiter when two finalizations race: exactly one caller wins.
func (r *Repository) ConvertCart(ctx context.Context, cartID uuid.UUID) error {
	result := r.DB(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Update("status", enums.CartStatusConverted)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "convert cart")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already converted")
	}
	return nil
}

// CustomerExists reports whether the customer is on record.
func (r *Repository) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer")
	}
	return count > 0, nil
}

// WarehouseExists reports whether the warehouse is on record.
func (r *Repository) WarehouseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Warehouse{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check warehouse")
	}
	return count > 0, nil
}

package parties

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

const searchLimit = 50

// Repository wires lookups over the externally administered party tables.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// SearchCustomers returns customers whose name matches the term.
func (r *Repository) SearchCustomers(ctx context.Context, term string) ([]models.Customer, error) {
	query := r.DB(ctx).Model(&models.Customer{})
	if term != "" {
		query = query.Where("name ILIKE ?", "%"+term+"%")
	}
	var customers []models.Customer
	if err := query.Order("name ASC").Limit(searchLimit).Find(&customers).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search customers")
	}
	return customers, nil
}

// SearchPartners returns partners whose name matches the term.
func (r *Repository) SearchPartners(ctx context.Context, term string) ([]models.Partner, error) {
	query := r.DB(ctx).Model(&models.Partner{})
	if term != "" {
		query = query.Where("name ILIKE ?", "%"+term+"%")
	}
	var partners []models.Partner
	if err := query.Order("name ASC").Limit(searchLimit).Find(&partners).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search partners")
	}
	return partners, nil
}

// ListSalespeople returns the active users eligible to appear on an order.
func (r *Repository) ListSalespeople(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB(ctx).
		Where("is_active AND role = ?", enums.RoleSeller).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list salespeople")
	}
	return users, nil
}

// FindUser loads one console user.
func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return &user, nil
}

// PartnerExists reports whether the partner is on record.
func (r *Repository) PartnerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Partner{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check partner")
	}
	return count > 0, nil
}

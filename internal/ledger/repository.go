package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rtavares/movelaria-backend/internal/repo"
	"github.com/rtavares/movelaria-backend/pkg/db/models"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/pagination"
)

// Repository wires bookkeeping persistence helpers.
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

// Create appends one bookkeeping row. Callers run it inside the transaction
// of the business event it records.
func (r *Repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ledger entry")
	}
	return nil
}

// ListFilters narrows a ledger page.
type ListFilters struct {
	OrderID *uuid.UUID
	Kind    *enums.LedgerEntryKind
	From    *time.Time
	To      *time.Time
}

// List returns one cursor page of entries, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.LedgerEntry, string, error) {
	query := r.DB(ctx).Model(&models.LedgerEntry{})
	if filters.OrderID != nil {
		query = query.Where("order_id = ?", *filters.OrderID)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.From != nil {
		query = query.Where("occurred_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("occurred_at < ?", *filters.To)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var entries []models.LedgerEntry
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&entries).Error
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	next := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return entries, next, nil
}
